package ledger

import "github.com/shopspring/decimal"

type Status string

const (
	Healthy  Status = "healthy"
	Warning  Status = "warning"
	Critical Status = "critical"
)

// Progress is a display-ready view of spent against a limit.
type Progress struct {
	Spent     decimal.Decimal `json:"spent"`
	Limit     decimal.Decimal `json:"limit"`
	Percent   float64         `json:"percent"` // capped at 100
	Remaining decimal.Decimal `json:"remaining"`
	Status    Status          `json:"status"`
}

// BudgetProgress computes the progress bar for spent against limit.
func BudgetProgress(spent, limit decimal.Decimal, threshold float64) Progress {
	p := Progress{Spent: spent, Limit: limit, Remaining: decimal.Zero, Status: Healthy}

	pct := UsagePercent(spent, limit)
	if pct > 100 {
		pct = 100
	}
	p.Percent = pct

	if rem := limit.Sub(spent); rem.IsPositive() {
		p.Remaining = rem
	}
	if !limit.IsPositive() {
		return p
	}
	switch {
	case spent.GreaterThan(limit):
		p.Status = Critical
	case spent.IsPositive() && pct >= threshold:
		p.Status = Warning
	}
	return p
}
