package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys on the topic exchange.
const (
	RoutingBudgetAlert   = "budget.alert"
	RoutingLedgerChanged = "ledger.changed"
)

// AlertMessage carries one budget alert to whoever surfaces notifications.
type AlertMessage struct {
	Severity   string    `json:"severity"`
	Scope      string    `json:"scope"`
	CategoryID string    `json:"categoryId,omitempty"`
	Percent    float64   `json:"percent"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Language   string    `json:"language"`
	Timestamp  time.Time `json:"timestamp"`
}

// LedgerChangedMessage announces that a new state version was saved.
// It carries no ledger data; consumers read the store themselves.
// Versions only increase within one Epoch, which changes on every start of
// the publishing process.
type LedgerChangedMessage struct {
	Epoch     int64     `json:"epoch"`
	Version   uint64    `json:"version"`
	Operation string    `json:"operation"`
	Count     int       `json:"transactionCount"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(epoch int64, version uint64, operation string, count int) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		Epoch:     epoch,
		Version:   version,
		Operation: operation,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}

func (m *AlertMessage) ToJSON() ([]byte, error)         { return json.Marshal(m) }
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
