package backend

import (
	"context"
	"path/filepath"
	"testing"

	"masarify/internal/config"
	"masarify/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SnapshotHistory: 3})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.SnapshotHistory != 3 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"gcs without bucket", Config{Type: GCSBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Ready != nil {
		t.Fatal("memory backend should not need a readiness probe")
	}
	ctx := context.Background()
	if err := res.Store.Put(ctx, "k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if v, ok, _ := res.Store.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masarify.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:            SQLiteBackend,
		SQLiteDBPath:    path,
		SnapshotHistory: 2,
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	ctx := context.Background()
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	if _, ok := res.Store.(storage.Archiver); !ok {
		t.Fatal("sqlite store should keep snapshots")
	}
}
