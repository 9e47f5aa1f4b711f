package advisor

import (
	"sort"
	"time"

	"masarify/internal/core"
)

// DefaultMaxItems caps how many transactions are shared with the model.
const DefaultMaxItems = 100

// SummaryItem is the only view of a transaction that leaves the process:
// no ids, notes or receipt images.
type SummaryItem struct {
	Date     string               `json:"date"`
	Amount   core.Money           `json:"amount"`
	Type     core.TransactionType `json:"type"`
	Category string               `json:"category"`
}

// BuildSummary reduces txs to at most n items, newest first. Category names
// are always English so the model reasons over a single vocabulary.
func BuildSummary(txs []core.Transaction, categories []core.Category, n int) []SummaryItem {
	if n <= 0 {
		n = DefaultMaxItems
	}
	type dated struct {
		item SummaryItem
		ts   time.Time
		ok   bool
	}
	all := make([]dated, 0, len(txs))
	for _, tx := range txs {
		ts, ok := tx.Time()
		all = append(all, dated{
			item: SummaryItem{
				Date:     tx.Day(),
				Amount:   tx.Amount,
				Type:     tx.Type,
				Category: core.CategoryName(categories, tx.CategoryID, core.English),
			},
			ts: ts,
			ok: ok,
		})
	}
	// Undated entries sort last.
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].ok != all[j].ok {
			return all[i].ok
		}
		return all[i].ts.After(all[j].ts)
	})
	if len(all) > n {
		all = all[:n]
	}
	out := make([]SummaryItem, len(all))
	for i, d := range all {
		out[i] = d.item
	}
	return out
}
