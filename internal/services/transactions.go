package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"masarify/internal/core"
	"masarify/internal/ledger"
	"masarify/internal/log"
)

// TransactionInput is what a caller supplies for a new or edited transaction.
type TransactionInput struct {
	Amount       core.Money           `json:"amount"`
	Date         string               `json:"date"`
	CategoryID   string               `json:"categoryId"`
	AccountID    string               `json:"accountId"`
	Note         string               `json:"note,omitempty"`
	Type         core.TransactionType `json:"type"`
	ReceiptImage string               `json:"receiptImage,omitempty"`
}

func (in TransactionInput) build(id string, now func() string) (core.Transaction, error) {
	tx := core.Transaction{
		ID:           id,
		Amount:       in.Amount,
		Date:         strings.TrimSpace(in.Date),
		CategoryID:   strings.TrimSpace(in.CategoryID),
		AccountID:    strings.TrimSpace(in.AccountID),
		Note:         strings.TrimSpace(in.Note),
		Type:         in.Type,
		ReceiptImage: in.ReceiptImage,
	}
	if tx.Date == "" {
		tx.Date = now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return tx, nil
}

// TransactionResult is the stored transaction plus the alerts it triggered.
type TransactionResult struct {
	Transaction core.Transaction    `json:"transaction"`
	Alerts      []ledger.AlertEvent `json:"alerts"`
}

func (s *BudgetService) nowISO() string {
	return core.FormatDate(s.now())
}

// AddTransaction stores a new transaction at the head of the list and
// evaluates budget alerts for it.
func (s *BudgetService) AddTransaction(ctx context.Context, in TransactionInput) (TransactionResult, error) {
	tx, err := in.build(uuid.NewString(), s.nowISO)
	if err != nil {
		return TransactionResult{}, err
	}
	next, err := s.mutate(ctx, log.OpCreate, func(st core.AppState) (core.AppState, error) {
		out := st.Clone()
		out.Transactions = append([]core.Transaction{tx}, st.Transactions...)
		return out, nil
	})
	if err != nil {
		return TransactionResult{}, err
	}
	s.events.LogTransaction(ctx, log.OpCreate, tx.ID, string(tx.Type), tx.Amount.String(), tx.CategoryID)
	return s.afterChange(ctx, next, tx), nil
}

// UpdateTransaction replaces the transaction with the given id in place.
func (s *BudgetService) UpdateTransaction(ctx context.Context, id string, in TransactionInput) (TransactionResult, error) {
	tx, err := in.build(id, s.nowISO)
	if err != nil {
		return TransactionResult{}, err
	}
	next, err := s.mutate(ctx, log.OpUpdate, func(st core.AppState) (core.AppState, error) {
		i := slices.IndexFunc(st.Transactions, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			return st, ErrTransactionNotFound
		}
		out := st.Clone()
		out.Transactions[i] = tx
		return out, nil
	})
	if err != nil {
		return TransactionResult{}, err
	}
	s.events.LogTransaction(ctx, log.OpUpdate, tx.ID, string(tx.Type), tx.Amount.String(), tx.CategoryID)
	return s.afterChange(ctx, next, tx), nil
}

func (s *BudgetService) afterChange(ctx context.Context, state core.AppState, tx core.Transaction) TransactionResult {
	events := ledger.EvaluateAlerts(state.Transactions, state.Categories, state.Budget, s.ref(), &tx)
	s.notifyAlerts(ctx, state.Language, events)
	if events == nil {
		events = []ledger.AlertEvent{}
	}
	return TransactionResult{Transaction: tx, Alerts: events}
}

// DeleteTransaction removes a transaction. Alerts are not re-evaluated.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, log.OpDelete, func(st core.AppState) (core.AppState, error) {
		i := slices.IndexFunc(st.Transactions, func(t core.Transaction) bool { return t.ID == id })
		if i < 0 {
			return st, ErrTransactionNotFound
		}
		out := st.Clone()
		out.Transactions = slices.Delete(out.Transactions, i, i+1)
		return out, nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Transaction deleted", log.FieldOperation, log.OpDelete, log.FieldTxID, id)
	}
	return err
}

// TransactionQuery filters the transaction list. Empty fields match everything.
type TransactionQuery struct {
	Text       string
	Type       core.TransactionType
	CategoryID string
	Limit      int
}

// SearchTransactions matches Text against the note (case-insensitive) or the
// amount's decimal text, in stored order (newest first).
func (s *BudgetService) SearchTransactions(q TransactionQuery) []core.Transaction {
	s.mu.RLock()
	txs := s.state.Transactions
	s.mu.RUnlock()

	limit := q.Limit
	if limit <= 0 || limit > s.searchLimit {
		limit = s.searchLimit
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]core.Transaction, 0, min(limit, len(txs)))
	for _, tx := range txs {
		if len(out) == limit {
			break
		}
		if q.Type != "" && tx.Type != q.Type {
			continue
		}
		if q.CategoryID != "" && tx.CategoryID != q.CategoryID {
			continue
		}
		if text != "" &&
			!strings.Contains(strings.ToLower(tx.Note), text) &&
			!strings.Contains(tx.Amount.String(), text) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
