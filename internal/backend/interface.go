// Package backend builds the state store selected by configuration.
package backend

import (
	"context"

	"masarify/internal/storage"
)

// CleanupFunc releases the resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store plus its readiness probe and cleanup.
type BackendResult struct {
	Store storage.StateStore
	// Ready reports whether the store can currently be reached.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	GCSBackend    BackendType = "gcs"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, GCSBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
