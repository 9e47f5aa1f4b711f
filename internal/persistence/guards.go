package persistence

import "masarify/internal/core"

// DeleteCategory removes the category unless a transaction still references it.
func DeleteCategory(state core.AppState, categoryID string) (core.AppState, error) {
	for _, tx := range state.Transactions {
		if tx.CategoryID == categoryID {
			return state, ErrCategoryInUse
		}
	}
	next := state.Clone()
	next.Categories = next.Categories[:0]
	for _, c := range state.Categories {
		if c.ID != categoryID {
			next.Categories = append(next.Categories, c)
		}
	}
	return next, nil
}

// SetCurrency changes the ledger currency; it is locked once any transaction exists.
func SetCurrency(state core.AppState, currency core.Currency) (core.AppState, error) {
	if len(state.Transactions) > 0 {
		return state, ErrCurrencyLocked
	}
	next := state.Clone()
	next.Currency = currency
	return next, nil
}
