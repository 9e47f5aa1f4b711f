package backend

import (
	"context"
	"fmt"

	"masarify/internal/core"
	"masarify/internal/log"
	"masarify/internal/storage"
	"masarify/internal/storage/gcs"
	"masarify/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case GCSBackend:
		return f.createGCSBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	store, err := storage.NewSQLiteStore(config.SQLiteDBPath, config.SnapshotHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"snapshot_history", config.SnapshotHistory)

	return &BackendResult{
		Store:   store,
		Ready:   store.Ping,
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createGCSBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := gcs.New(ctx, config.GCSBucket, config.GCSPrefix, config.CredentialsJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS store: %w", err)
	}

	f.logger.Info("Initialized GCS backend", "bucket", config.GCSBucket, "prefix", config.GCSPrefix)

	return &BackendResult{
		Store: store,
		Ready: func(ctx context.Context) error {
			_, _, err := store.Get(ctx, core.StorageKey)
			return err
		},
		Cleanup: store.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend() (*BackendResult, error) {
	f.logger.Warn("Initialized memory backend, state is lost on restart")
	store := memory.New()
	return &BackendResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}
