// Package sheets mirrors the ledger into a spreadsheet for read-only viewing.
package sheets

import "context"

// LedgerMirror replaces the mirrored table with header followed by rows.
type LedgerMirror interface {
	ReplaceRows(ctx context.Context, header []string, rows [][]string) error
}
