package memory

import (
	"context"
	"errors"
	"testing"

	"masarify/internal/storage"
)

var (
	_ storage.StateStore = (*Store)(nil)
	_ storage.Archiver   = (*Store)(nil)
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatalf("expected empty store")
	}
	if err := s.Put(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("got %q", v)
	}
	if s.Writes() != 1 {
		t.Fatalf("writes %d", s.Writes())
	}
	s.Close()
	if err := s.Put(ctx, "k", "v2"); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestStoreHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Archive(ctx, "k", "a", "import")
	s.Archive(ctx, "other", "x", "import")
	s.Archive(ctx, "k", "b", "import")

	hist, _ := s.History(ctx, "k", 0)
	if len(hist) != 2 || hist[0].Value != "b" || hist[1].Value != "a" {
		t.Fatalf("unexpected history %+v", hist)
	}
}
