package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"masarify/internal/core"
)

type Severity string

const (
	Approaching Severity = "approaching"
	Exceeded    Severity = "exceeded"
)

type Scope string

const (
	Global   Scope = "global"
	Category Scope = "category"
)

// AlertEvent is the intent to notify the user about budget usage.
type AlertEvent struct {
	Severity   Severity `json:"severity"`
	Scope      Scope    `json:"scope"`
	CategoryID string   `json:"categoryId,omitempty"`
	Percent    float64  `json:"percent"`
}

var hundred = decimal.NewFromInt(100)

// UsagePercent returns spent/limit as a percentage. A limit <= 0 means
// "no limit" and yields 0.
func UsagePercent(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	pct, _ := spent.Div(limit).Mul(hundred).Float64()
	return pct
}

// classify applies the shared exceeded/approaching policy.
func classify(spent, limit decimal.Decimal, threshold float64) (Severity, float64, bool) {
	if !limit.IsPositive() || !spent.IsPositive() {
		return "", 0, false
	}
	pct := UsagePercent(spent, limit)
	switch {
	case pct >= 100:
		return Exceeded, pct, true
	case pct >= threshold:
		return Approaching, pct, true
	}
	return "", pct, false
}

// EvaluateAlerts checks the global monthly budget and, when changed is set,
// the budget of the changed transaction's category. The two checks are
// independent and may both fire.
func EvaluateAlerts(txs []core.Transaction, categories []core.Category, budget core.BudgetConfig, ref time.Time, changed *core.Transaction) []AlertEvent {
	var events []AlertEvent

	w := ComputeWindowTotals(txs, ref)
	if sev, pct, ok := classify(w.MonthlyExpense, budget.MonthlyLimit.Decimal(), budget.AlertThreshold); ok {
		events = append(events, AlertEvent{Severity: sev, Scope: Global, Percent: pct})
	}

	if changed == nil || changed.Type != core.Expense {
		return events
	}
	cat, ok := core.FindCategory(categories, changed.CategoryID)
	if !ok {
		return events
	}
	limit := cat.Limit().Decimal()
	if !limit.IsPositive() {
		return events
	}
	spent := ComputeCategoryTotal(txs, cat.ID, ref)
	if sev, pct, ok := classify(spent, limit, budget.AlertThreshold); ok {
		events = append(events, AlertEvent{Severity: sev, Scope: Category, CategoryID: cat.ID, Percent: pct})
	}
	return events
}
