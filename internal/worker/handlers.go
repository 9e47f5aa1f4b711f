// Package worker holds the message handlers run by masarify-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"masarify/internal/amqp"
	"masarify/internal/core"
	"masarify/internal/log"
	"masarify/internal/persistence"
	"masarify/internal/sheets"
	"masarify/internal/storage"
)

// AlertSink receives rendered alerts. The default sink logs them; a desktop or
// push notifier can be attached by implementing it.
type AlertSink interface {
	Show(ctx context.Context, title, body string) error
}

// LogSink writes alerts to the log.
type LogSink struct {
	logger *log.Logger
}

func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{logger: logger.WithComponent(log.ComponentNotify)}
}

func (s *LogSink) Show(ctx context.Context, title, body string) error {
	s.logger.InfoContext(ctx, "Budget notification", "title", title, "body", body)
	return nil
}

// AlertHandler surfaces budget.alert messages.
type AlertHandler struct {
	sink   AlertSink
	logger *log.Logger
}

func NewAlertHandler(sink AlertSink, logger *log.Logger) *AlertHandler {
	return &AlertHandler{sink: sink, logger: logger.WithComponent(log.ComponentWorker)}
}

func (h *AlertHandler) Handle(ctx context.Context, body []byte) error {
	msg, err := amqp.AlertMessageFromJSON(body)
	if err != nil {
		// Malformed payloads are dropped rather than requeued forever.
		h.logger.WarnContext(ctx, "Discarding malformed alert message", log.FieldError, err)
		return nil
	}
	h.logger.DebugContext(ctx, "Processing alert message",
		log.FieldSeverity, msg.Severity,
		log.FieldScope, msg.Scope,
		log.FieldPercent, msg.Percent)

	if msg.Title == "" && msg.Body == "" {
		return nil
	}
	return h.sink.Show(ctx, msg.Title, msg.Body)
}

// MirrorHandler rewrites the ledger mirror whenever a new state is saved.
type MirrorHandler struct {
	store  storage.StateStore
	mirror sheets.LedgerMirror
	logger *log.Logger

	mu          sync.Mutex
	lastEpoch   int64
	lastVersion uint64
}

func NewMirrorHandler(store storage.StateStore, mirror sheets.LedgerMirror, logger *log.Logger) *MirrorHandler {
	return &MirrorHandler{store: store, mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

func (h *MirrorHandler) Handle(ctx context.Context, body []byte) error {
	msg, err := amqp.LedgerChangedMessageFromJSON(body)
	if err != nil {
		h.logger.WarnContext(ctx, "Discarding malformed ledger message", log.FieldError, err)
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// The mirror always reflects the latest stored document, so an older
	// version of the same publisher run arriving late has nothing left to
	// add. Versions restart with each epoch.
	if msg.Epoch == h.lastEpoch && msg.Version != 0 && msg.Version < h.lastVersion {
		h.logger.DebugContext(ctx, "Skipping stale ledger message",
			"epoch", msg.Epoch, "version", msg.Version)
		return nil
	}

	if err := h.Sync(ctx); err != nil {
		return err
	}
	switch {
	case msg.Epoch > h.lastEpoch:
		h.lastEpoch, h.lastVersion = msg.Epoch, msg.Version
	case msg.Epoch == h.lastEpoch && msg.Version > h.lastVersion:
		h.lastVersion = msg.Version
	}
	return nil
}

// Sync writes the currently stored ledger to the mirror.
func (h *MirrorHandler) Sync(ctx context.Context) error {
	if h.mirror == nil {
		return errors.New("no ledger mirror configured")
	}
	raw, ok, err := h.store.Get(ctx, core.StorageKey)
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}
	state := persistence.Load(raw, ok)
	rows := persistence.CSVRows(state.Transactions, state.Categories, state.Accounts, state.Language)
	if err := h.mirror.ReplaceRows(ctx, persistence.CSVHeader, rows); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	h.logger.InfoContext(ctx, "Ledger mirrored",
		log.FieldOperation, log.OpMirror,
		"rows", len(rows))
	return nil
}

// Run syncs the mirror every interval until ctx is done, catching up on
// any change notifications the worker missed while it was down.
func (h *MirrorHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.Lock()
			err := h.Sync(ctx)
			h.mu.Unlock()
			if err != nil && ctx.Err() == nil {
				h.logger.ErrorContext(ctx, "Periodic mirror sync failed", log.FieldError, err)
			}
		}
	}
}
