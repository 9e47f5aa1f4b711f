package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit is how many archived snapshots are kept per key.
const DefaultHistoryLimit = 10

// SQLiteStore keeps documents in the kv_store table.
type SQLiteStore struct {
	db           *sql.DB
	historyLimit int

	closeOnce sync.Once
	closeErr  error
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and migrates it.
func NewSQLiteStore(dbPath string, historyLimit int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &SQLiteStore{db: db, historyLimit: historyLimit}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Archive stores value in snapshot_history and prunes entries beyond the history limit.
func (s *SQLiteStore) Archive(ctx context.Context, key, value, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_history (key, reason, value) VALUES (?, ?, ?)`,
		key, reason, value); err != nil {
		return fmt.Errorf("archive %q: %w", key, err)
	}
	res, err := tx.ExecContext(ctx, `
		DELETE FROM snapshot_history
		WHERE key = ? AND id NOT IN (
			SELECT id FROM snapshot_history WHERE key = ? ORDER BY id DESC LIMIT ?
		)`, key, key, s.historyLimit)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		slog.DebugContext(ctx, "Pruned snapshot history", "key", key, "removed", n)
	}
	return nil
}

// History lists archived snapshots for key, newest first.
func (s *SQLiteStore) History(ctx context.Context, key string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, key, reason, value, created_at FROM snapshot_history
		WHERE key = ? ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			snap    Snapshot
			created any
		)
		if err := rows.Scan(&snap.ID, &snap.Key, &snap.Reason, &snap.Value, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		snap.CreatedAt = scanTime(created)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// scanTime accepts both the time.Time the driver yields for DATETIME columns
// and the raw text CURRENT_TIMESTAMP writes.
func scanTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if ts, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Ping is used by the readiness probe.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
