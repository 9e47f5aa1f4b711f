package persistence

import (
	"encoding/csv"
	"strings"

	"masarify/internal/core"
)

// utf8BOM lets spreadsheet tools detect UTF-8 for Arabic text.
const utf8BOM = "\ufeff"

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Date", "Amount", "Type", "Category", "Account", "Note"}

// CSVRows flattens transactions, resolving references to display names in lang.
func CSVRows(txs []core.Transaction, categories []core.Category, accounts []core.Account, lang core.Language) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, []string{
			tx.Day(),
			tx.Amount.String(),
			string(tx.Type),
			core.CategoryName(categories, tx.CategoryID, lang),
			core.AccountName(accounts, tx.AccountID, lang),
			tx.Note,
		})
	}
	return rows
}

// ExportCSV renders transactions as a BOM-prefixed CSV document.
func ExportCSV(txs []core.Transaction, categories []core.Category, accounts []core.Account, lang core.Language) (string, error) {
	var sb strings.Builder
	sb.WriteString(utf8BOM)

	w := csv.NewWriter(&sb)
	if err := w.Write(CSVHeader); err != nil {
		return "", err
	}
	if err := w.WriteAll(CSVRows(txs, categories, accounts, lang)); err != nil {
		return "", err
	}
	return sb.String(), nil
}
