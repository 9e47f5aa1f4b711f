// Package storage provides the durable string store the application state is
// persisted to, plus its SQLite implementation.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("store closed")

// StateStore is a durable key/value store of opaque strings.
type StateStore interface {
	// Get returns the value under key; found is false when nothing was stored.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Close() error
}

// Snapshot is a previously stored document kept for recovery.
type Snapshot struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	Reason    string    `json:"reason"`
	Value     string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Archiver is implemented by stores that can keep replaced documents around.
type Archiver interface {
	Archive(ctx context.Context, key, value, reason string) error
	History(ctx context.Context, key string, limit int) ([]Snapshot, error)
}
