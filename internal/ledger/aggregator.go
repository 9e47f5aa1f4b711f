package ledger

import (
	"fmt"
	"time"

	"masarify/internal/cache"
	"masarify/internal/core"
)

// Aggregator memoizes window totals per (ledger version, month bucket).
// Callers must bump the version whenever the transaction list changes;
// results are identical to ComputeWindowTotals.
type Aggregator struct {
	totals *cache.LRUCache[WindowTotals]
}

func NewAggregator(size int, ttl time.Duration) *Aggregator {
	return &Aggregator{totals: cache.NewLRUCache[WindowTotals](size, ttl)}
}

func bucketKey(version uint64, ref time.Time) string {
	return fmt.Sprintf("%d|%04d-%02d|%s", version, ref.Year(), ref.Month(), ref.Location())
}

// WindowTotals returns the totals for ref's month, computing them at most once per version.
func (a *Aggregator) WindowTotals(version uint64, txs []core.Transaction, ref time.Time) WindowTotals {
	key := bucketKey(version, ref)
	if w, ok := a.totals.Get(key); ok {
		return w
	}
	w := ComputeWindowTotals(txs, ref)
	a.totals.Set(key, w)
	return w
}

// Cache exposes the underlying cache for cleanup registration and stats.
func (a *Aggregator) Cache() *cache.LRUCache[WindowTotals] {
	return a.totals
}
