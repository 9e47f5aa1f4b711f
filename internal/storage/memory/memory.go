// Package memory is an in-process StateStore for tests and throwaway runs.
package memory

import (
	"context"
	"sync"
	"time"

	"masarify/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	values  map[string]string
	history []storage.Snapshot
	closed  bool
	writes  int
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Seed stores value under key without counting it as a write.
func (s *Store) Seed(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, storage.ErrClosed
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.values[key] = value
	s.writes++
	return nil
}

// Writes counts Put calls.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func (s *Store) Archive(_ context.Context, key, value, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, storage.Snapshot{
		ID:        int64(len(s.history) + 1),
		Key:       key,
		Reason:    reason,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *Store) History(_ context.Context, key string, limit int) ([]storage.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []storage.Snapshot
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Key != key {
			continue
		}
		out = append(out, s.history[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
