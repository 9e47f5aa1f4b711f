package persistence

import (
	"context"
	"fmt"
	"sync"

	"masarify/internal/core"
	"masarify/internal/storage"
)

// Gateway binds the state codec to a durable store under core.StorageKey.
type Gateway struct {
	store storage.StateStore
	key   string

	mu      sync.Mutex
	loaded  bool
	lastDoc string
}

func NewGateway(store storage.StateStore) *Gateway {
	return &Gateway{store: store, key: core.StorageKey}
}

// Load reads the stored document. A missing or corrupt document yields the
// default state. A store failure is returned and leaves saving disabled, so a
// document that could not be read is never overwritten.
func (g *Gateway) Load(ctx context.Context) (core.AppState, Dropped, error) {
	raw, found, err := g.store.Get(ctx, g.key)
	if err != nil {
		return core.AppState{}, Dropped{}, fmt.Errorf("load state: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.loaded = true
	if found {
		g.lastDoc = raw
	}
	state, dropped := Decode(raw, found)
	return state, dropped, nil
}

// Loaded reports whether Load has completed.
func (g *Gateway) Loaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loaded
}

// Save writes the full state. It refuses to run before Load and skips the
// write when the document is unchanged since the last save.
func (g *Gateway) Save(ctx context.Context, state core.AppState) error {
	doc, err := Encode(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.loaded {
		return ErrNotLoaded
	}
	if doc == g.lastDoc {
		return nil
	}
	if err := g.store.Put(ctx, g.key, doc); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	g.lastDoc = doc
	return nil
}

// Archive keeps the currently stored document in the store's history, when
// the store supports it. reason is recorded alongside.
func (g *Gateway) Archive(ctx context.Context, reason string) error {
	arch, ok := g.store.(storage.Archiver)
	if !ok {
		return nil
	}
	raw, found, err := g.store.Get(ctx, g.key)
	if err != nil {
		return fmt.Errorf("read state for archive: %w", err)
	}
	if !found {
		return nil
	}
	return arch.Archive(ctx, g.key, raw, reason)
}

// History lists archived documents, or nothing when the store keeps none.
func (g *Gateway) History(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	arch, ok := g.store.(storage.Archiver)
	if !ok {
		return nil, nil
	}
	return arch.History(ctx, g.key, limit)
}
