package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("connection refused"), true},
		{errors.New("connection closed: delivery channel closed"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("write: broken pipe"), true},
		{fmt.Errorf("dial AMQP: %w", errors.New("timeout")), true},
		{errors.New("invalid input"), false},
	}
	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.expected {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
		}
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	if client.isCircuitOpen() {
		t.Fatal("circuit should start closed")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit should open after max failures")
	}

	client.lastFailure.Store(time.Now().Add(-openTimeout - time.Second).UnixNano())
	if client.isCircuitOpen() {
		t.Fatal("circuit should half-open after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatalf("state = %d, want half-open", client.state)
	}

	// A single failure while half-open reopens it.
	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("failure while half-open must reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success must reset the breaker")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure.Store(time.Now().UnixNano())
	err := client.PublishLedgerChanged(context.Background(), NewLedgerChangedMessage(1, 1, "create", 1))
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}

	client.recordSuccess()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.PublishAlert(ctx, &AlertMessage{Severity: "exceeded"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMessagesJSON(t *testing.T) {
	msg := NewLedgerChangedMessage(99, 7, "import", 12)
	if msg.Timestamp.IsZero() || time.Since(msg.Timestamp) > time.Second {
		t.Fatalf("timestamp not set: %v", msg.Timestamp)
	}
	b, err := msg.ToJSON()
	if err != nil {
		t.Fatal(err)
	}
	got, err := LedgerChangedMessageFromJSON(b)
	if err != nil || got.Epoch != 99 || got.Version != 7 || got.Operation != "import" || got.Count != 12 {
		t.Fatalf("got %+v err=%v", got, err)
	}

	alert := &AlertMessage{Severity: "approaching", Scope: "category", CategoryID: "1", Percent: 90, Body: "x"}
	b, _ = alert.ToJSON()
	if !strings.Contains(string(b), `"categoryId":"1"`) {
		t.Fatalf("unexpected encoding %s", b)
	}
	if _, err := AlertMessageFromJSON([]byte(`{"percent":"high"}`)); err == nil {
		t.Fatal("expected decode error")
	}
}
