// Package categorize fills category, subcategory and recurrence on
// transactions, first by taxonomy lookup and then by model prediction.
package categorize

import (
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/taxonomy"
)

// Rules derives category and recurrence from a row's subcategory.
type Rules struct {
	tax *taxonomy.Taxonomy
}

// NewRules creates rules over tax.
func NewRules(tax *taxonomy.Taxonomy) *Rules {
	return &Rules{tax: tax}
}

// Apply returns tx with its subcategory stored as a key and its category
// and recurrence backfilled. An unknown or missing subcategory leaves the
// category empty and the row non-recurrent.
func (r *Rules) Apply(tx model.Transaction) model.Transaction {
	tx.Category = nil
	tx.Recurrent = model.RecurrentNo
	if !tx.IsCategorized() {
		return tx
	}
	key, ok := r.tax.ResolveSubcategory(*tx.Subcategory)
	if !ok {
		return tx
	}
	cat, _ := r.tax.CategoryOf(key)
	tx.Subcategory = model.StringPtr(key)
	tx.Category = model.StringPtr(cat)
	if r.tax.IsRecurrent(key) {
		tx.Recurrent = model.RecurrentYes
	}
	return tx
}

// ApplyIncome stores an income row's category as a key when it is a known
// income category.
func (r *Rules) ApplyIncome(tx model.Transaction) model.Transaction {
	if tx.Category == nil {
		return tx
	}
	if key, ok := r.tax.ResolveIncome(*tx.Category); ok {
		tx.Category = model.StringPtr(key)
	}
	return tx
}
