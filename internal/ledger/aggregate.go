// Package ledger derives figures from the transaction list and decides when
// budget alerts fire. Every function is pure: inputs are never modified and
// malformed transactions are skipped or counted as zero.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"masarify/internal/core"
)

// WindowTotals holds the month and year sums for a reference date.
type WindowTotals struct {
	MonthlyIncome  decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpense decimal.Decimal `json:"monthlyExpense"`
	YearlyIncome   decimal.Decimal `json:"yearlyIncome"`
	YearlyExpense  decimal.Decimal `json:"yearlyExpense"`
	MonthlyCount   int             `json:"monthlyCount"`
}

// CategoryTotal is one row of the expense breakdown.
type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Total      decimal.Decimal `json:"total"`
}

// signed returns the contribution of tx to the balance.
func signed(tx core.Transaction) decimal.Decimal {
	switch tx.Type {
	case core.Income:
		return tx.Amount.Decimal()
	case core.Expense:
		return tx.Amount.Decimal().Neg()
	default:
		return decimal.Zero
	}
}

// ComputeBalance sums INCOME minus EXPENSE over the whole history.
func ComputeBalance(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(signed(tx))
	}
	return total
}

// sameMonth reports whether ts falls in ref's calendar month, in ref's location.
func sameMonth(ts, ref time.Time) bool {
	ts = ts.In(ref.Location())
	return ts.Year() == ref.Year() && ts.Month() == ref.Month()
}

func sameYear(ts, ref time.Time) bool {
	return ts.In(ref.Location()).Year() == ref.Year()
}

// ComputeWindowTotals buckets transactions by the calendar month and year of ref.
func ComputeWindowTotals(txs []core.Transaction, ref time.Time) WindowTotals {
	w := WindowTotals{
		MonthlyIncome:  decimal.Zero,
		MonthlyExpense: decimal.Zero,
		YearlyIncome:   decimal.Zero,
		YearlyExpense:  decimal.Zero,
	}
	for _, tx := range txs {
		ts, ok := tx.Time()
		if !ok || !sameYear(ts, ref) {
			continue
		}
		amount := tx.Amount.Decimal()
		month := sameMonth(ts, ref)
		switch tx.Type {
		case core.Income:
			w.YearlyIncome = w.YearlyIncome.Add(amount)
			if month {
				w.MonthlyIncome = w.MonthlyIncome.Add(amount)
			}
		case core.Expense:
			w.YearlyExpense = w.YearlyExpense.Add(amount)
			if month {
				w.MonthlyExpense = w.MonthlyExpense.Add(amount)
			}
		default:
			continue
		}
		if month {
			w.MonthlyCount++
		}
	}
	return w
}

// ComputeCategoryTotal sums the current-month expenses booked against categoryID.
func ComputeCategoryTotal(txs []core.Transaction, categoryID string, ref time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Type != core.Expense || tx.CategoryID != categoryID {
			continue
		}
		ts, ok := tx.Time()
		if !ok || !sameMonth(ts, ref) {
			continue
		}
		total = total.Add(tx.Amount.Decimal())
	}
	return total
}

// ExpenseBreakdown returns per-category expense totals in category order,
// leaving out categories with nothing spent. A nil ref covers the whole
// history; otherwise only the month of *ref is counted.
func ExpenseBreakdown(txs []core.Transaction, categories []core.Category, ref *time.Time) []CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		if ref != nil {
			ts, ok := tx.Time()
			if !ok || !sameMonth(ts, *ref) {
				continue
			}
		}
		sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount.Decimal())
	}

	out := make([]CategoryTotal, 0, len(sums))
	for _, c := range categories {
		total, ok := sums[c.ID]
		if !ok || !total.IsPositive() {
			continue
		}
		out = append(out, CategoryTotal{CategoryID: c.ID, Total: total})
	}
	return out
}

// RecentTransactions returns up to n transactions of ref's month, newest first.
func RecentTransactions(txs []core.Transaction, ref time.Time, n int) []core.Transaction {
	type dated struct {
		tx core.Transaction
		ts time.Time
	}
	var month []dated
	for _, tx := range txs {
		ts, ok := tx.Time()
		if !ok || !sameMonth(ts, ref) {
			continue
		}
		month = append(month, dated{tx, ts})
	}
	sort.SliceStable(month, func(i, j int) bool { return month[i].ts.After(month[j].ts) })

	if n >= 0 && len(month) > n {
		month = month[:n]
	}
	out := make([]core.Transaction, len(month))
	for i, d := range month {
		out[i] = d.tx
	}
	return out
}
