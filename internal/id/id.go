// Package id numbers transactions within a profile's table.
package id

import "github.com/llazzari/personal-finance/internal/model"

// Max returns the largest id in txs, or -1 for an empty table.
func Max(txs []model.Transaction) int {
	m := -1
	for _, tx := range txs {
		if tx.ID > m {
			m = tx.ID
		}
	}
	return m
}

// Next returns the first id free above existing.
func Next(existing []model.Transaction) int {
	return Max(existing) + 1
}

// Assign numbers fresh rows consecutively from Next(existing). fresh is
// not modified.
func Assign(existing, fresh []model.Transaction) []model.Transaction {
	start := Next(existing)
	out := make([]model.Transaction, len(fresh))
	for i, tx := range fresh {
		tx.ID = start + i
		out[i] = tx
	}
	return out
}

// Renumber sets every id to the row position.
func Renumber(txs []model.Transaction) {
	for i := range txs {
		txs[i].ID = i
	}
}
