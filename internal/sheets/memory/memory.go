// Package memory is an in-process ledger mirror used by tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"
)

type Mirror struct {
	mu     sync.Mutex
	header []string
	rows   [][]string
	writes int
}

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) ReplaceRows(_ context.Context, header []string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.header = append([]string(nil), header...)
	m.rows = make([][]string, len(rows))
	for i, r := range rows {
		m.rows[i] = append([]string(nil), r...)
	}
	m.writes++
	return nil
}

// Snapshot returns copies of the last written table and the number of writes.
func (m *Mirror) Snapshot() (header []string, rows [][]string, writes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows = make([][]string, len(m.rows))
	for i, r := range m.rows {
		rows[i] = append([]string(nil), r...)
	}
	return append([]string(nil), m.header...), rows, m.writes
}
