package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T, limit int) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "test.db"), limit)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreGetPut(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("expected missing key, found=%v err=%v", found, err)
	}
	if err := s.Put(ctx, "k", `{"a":1}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, "k", `{"a":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != `{"a":2}` {
		t.Fatalf("got %q found=%v err=%v", v, found, err)
	}
}

func TestSQLiteStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := NewSQLiteStore(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := NewSQLiteStore(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if v, found, _ := s2.Get(ctx, "k"); !found || v != "v" {
		t.Fatalf("data lost across reopen: %q", v)
	}
}

func TestSQLiteStoreArchivePrunes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 3)

	for i := 0; i < 5; i++ {
		if err := s.Archive(ctx, "k", fmt.Sprintf("v%d", i), "import"); err != nil {
			t.Fatalf("archive %d: %v", i, err)
		}
	}
	hist, err := s.History(ctx, "k", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(hist))
	}
	if hist[0].Value != "v4" || hist[2].Value != "v2" || hist[0].Reason != "import" {
		t.Fatalf("unexpected order %+v", hist)
	}
}
