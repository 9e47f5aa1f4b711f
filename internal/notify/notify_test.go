package notify

import (
	"context"
	"errors"
	"testing"

	"masarify/internal/core"
	"masarify/internal/ledger"
)

type recorder struct {
	calls int
	got   []ledger.AlertEvent
	err   error
}

func (r *recorder) Notify(_ context.Context, _ core.Language, events []ledger.AlertEvent) error {
	r.calls++
	r.got = append(r.got, events...)
	return r.err
}

func TestRender(t *testing.T) {
	tests := []struct {
		event ledger.AlertEvent
		lang  core.Language
		title string
		body  string
	}{
		{ledger.AlertEvent{Severity: ledger.Exceeded, Scope: ledger.Global, Percent: 112}, core.English, "Warning", "You have exceeded your monthly budget!"},
		{ledger.AlertEvent{Severity: ledger.Approaching, Scope: ledger.Global, Percent: 84.6}, core.English, "Warning", "You have used 85% of your monthly budget."},
		{ledger.AlertEvent{Severity: ledger.Approaching, Scope: ledger.Category, CategoryID: "1", Percent: 90}, core.Arabic, "تنبيه", "You have used 90% of your Food budget."},
		{ledger.AlertEvent{Severity: ledger.Exceeded, Scope: ledger.Category, CategoryID: "1", Percent: 130}, core.English, "Warning", "You have exceeded your Food budget!"},
	}
	for _, tt := range tests {
		got := Render(tt.event, "Food", tt.lang)
		if got.Title != tt.title || got.Body != tt.body {
			t.Errorf("Render(%+v) = %+v", tt.event, got)
		}
	}
}

func TestGate(t *testing.T) {
	events := []ledger.AlertEvent{{Severity: ledger.Exceeded, Scope: ledger.Global, Percent: 100}}
	rec := &recorder{}

	granted := false
	g := NewGate(rec, func() bool { return granted })
	g.Notify(context.Background(), core.English, events)
	if rec.calls != 0 {
		t.Fatal("gate must hold alerts without permission")
	}

	granted = true
	g.Notify(context.Background(), core.English, nil)
	if rec.calls != 0 {
		t.Fatal("empty batches are not forwarded")
	}
	g.Notify(context.Background(), core.English, events)
	if rec.calls != 1 || len(rec.got) != 1 {
		t.Fatalf("expected one forwarded batch, got %d", rec.calls)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a, b := &recorder{err: boom}, &recorder{}
	m := Multi{a, nil, b}

	err := m.Notify(context.Background(), core.English, []ledger.AlertEvent{{}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatal("every notifier must be called even after a failure")
	}
}
