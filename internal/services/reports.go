package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"masarify/internal/advisor"
	"masarify/internal/core"
	"masarify/internal/ledger"
	"masarify/internal/log"
	"masarify/internal/persistence"
	"masarify/internal/storage"
)

// Dashboard is the home screen summary for one reference month.
type Dashboard struct {
	Balance  decimal.Decimal     `json:"balance"`
	Totals   ledger.WindowTotals `json:"totals"`
	Monthly  ledger.Progress     `json:"monthly"`
	Yearly   ledger.Progress     `json:"yearly"`
	Recent   []core.Transaction  `json:"recent"`
	Currency core.Currency       `json:"currency"`
	Language core.Language       `json:"language"`
}

// Dashboard summarizes the month and year containing ref. A zero ref means now.
func (s *BudgetService) Dashboard(ref time.Time) Dashboard {
	s.mu.RLock()
	st, version := s.state, s.version
	s.mu.RUnlock()

	if ref.IsZero() {
		ref = s.ref()
	} else {
		ref = ref.In(s.loc)
	}
	totals := s.aggregator.WindowTotals(version, st.Transactions, ref)
	threshold := st.Budget.AlertThreshold

	recent := ledger.RecentTransactions(st.Transactions, ref, s.recentLimit)
	if recent == nil {
		recent = []core.Transaction{}
	}
	return Dashboard{
		Balance:  ledger.ComputeBalance(st.Transactions),
		Totals:   totals,
		Monthly:  ledger.BudgetProgress(totals.MonthlyExpense, st.Budget.MonthlyLimit.Decimal(), threshold),
		Yearly:   ledger.BudgetProgress(totals.YearlyExpense, st.Budget.YearlyLimit.Decimal(), threshold),
		Recent:   recent,
		Currency: st.Currency,
		Language: st.Language,
	}
}

// BreakdownEntry is one slice of the expense chart.
type BreakdownEntry struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	Share      float64         `json:"share"` // percent of all listed expenses
}

// Breakdown returns expense totals per category, over the whole history when
// ref is nil or over the month of *ref otherwise.
func (s *BudgetService) Breakdown(ref *time.Time) []BreakdownEntry {
	st := s.State()
	if ref != nil {
		r := ref.In(s.loc)
		ref = &r
	}
	totals := ledger.ExpenseBreakdown(st.Transactions, st.Categories, ref)

	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}
	out := make([]BreakdownEntry, 0, len(totals))
	for _, t := range totals {
		c, _ := core.FindCategory(st.Categories, t.CategoryID)
		share, _ := t.Total.Div(sum).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		out = append(out, BreakdownEntry{
			CategoryID: t.CategoryID,
			Name:       core.DisplayName(c.NameEn, c.NameAr, st.Language),
			Icon:       core.IconOrDefault(c.Icon),
			Color:      c.Color,
			Total:      t.Total,
			Share:      share,
		})
	}
	return out
}

// ExportSnapshot renders the full backup document.
func (s *BudgetService) ExportSnapshot(ctx context.Context) (string, error) {
	doc, err := persistence.ExportSnapshot(s.State())
	if err != nil {
		return "", fmt.Errorf("export snapshot: %w", err)
	}
	s.logger.InfoContext(ctx, "Snapshot exported", log.FieldOperation, log.OpExport)
	return doc, nil
}

// ExportCSV renders the transactions as CSV with names in the current language.
func (s *BudgetService) ExportCSV(ctx context.Context) (string, error) {
	st := s.State()
	doc, err := persistence.ExportCSV(st.Transactions, st.Categories, st.Accounts, st.Language)
	if err != nil {
		return "", fmt.Errorf("export csv: %w", err)
	}
	s.logger.InfoContext(ctx, "CSV exported", log.FieldOperation, log.OpExport, "rows", len(st.Transactions))
	return doc, nil
}

// ImportSnapshot replaces the whole state with a backup. The stored document
// is archived first so the replaced data can be recovered.
func (s *BudgetService) ImportSnapshot(ctx context.Context, raw string) (core.AppState, error) {
	imported, dropped, err := persistence.ImportSnapshot(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "Import rejected", log.FieldOperation, log.OpImport, log.FieldError, err)
		return core.AppState{}, err
	}
	if dropped.Total() > 0 {
		s.logger.WarnContext(ctx, "Skipped unreadable entries in backup",
			log.FieldOperation, log.OpImport,
			"transactions", dropped.Transactions,
			"categories", dropped.Categories,
			"accounts", dropped.Accounts)
	}
	if err := s.gateway.Archive(ctx, log.OpImport); err != nil {
		s.logger.WarnContext(ctx, "Failed to archive state before import", log.FieldError, err)
	}
	next, err := s.mutate(ctx, log.OpImport, func(core.AppState) (core.AppState, error) {
		return imported, nil
	})
	if err != nil {
		return core.AppState{}, err
	}
	s.logger.InfoContext(ctx, "Snapshot imported",
		log.FieldOperation, log.OpImport,
		"transactions", len(next.Transactions))
	return next.Clone(), nil
}

// History lists archived snapshots, newest first.
func (s *BudgetService) History(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	return s.gateway.History(ctx, limit)
}

// Ask records the question, asks the advisor and records its answer. The
// state is read once up front; the lock is not held while waiting.
func (s *BudgetService) Ask(ctx context.Context, question string) advisor.Message {
	st := s.State()
	s.conversation.Append(advisor.RoleUser, question)

	answer := s.advisor.Ask(ctx, advisor.AskRequest{
		Question:     question,
		Transactions: st.Transactions,
		Categories:   st.Categories,
		Language:     st.Language,
		CurrencyCode: st.Currency.Code,
	})
	s.conversation.Append(advisor.RoleAI, answer)
	return advisor.Message{Role: advisor.RoleAI, Text: answer, At: time.Now().UTC()}
}

// Messages returns the advisor conversation in arrival order.
func (s *BudgetService) Messages() []advisor.Message {
	return s.conversation.Messages()
}
