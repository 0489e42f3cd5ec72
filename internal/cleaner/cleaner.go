// Package cleaner holds the stages that bring a bank's raw table into the
// canonical schema, and the helpers that turn that table into transactions.
package cleaner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/frame"
	"github.com/llazzari/personal-finance/internal/model"
)

// Stage transforms a table. Stages never mutate their input.
type Stage func(*frame.Frame) (*frame.Frame, error)

// Compose chains stages left to right and stops at the first failure.
func Compose(stages ...Stage) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		var err error
		for i, s := range stages {
			f, err = s(f)
			if err != nil {
				return nil, fmt.Errorf("pipeline step %d failed: %w", i+1, err)
			}
		}
		return f, nil
	}
}

func requireColumns(f *frame.Frame, stage string, cols ...string) error {
	for _, c := range cols {
		if !f.Has(c) {
			return &errs.SchemaError{Stage: stage, Column: c}
		}
	}
	return nil
}

// ToTransactions converts a canonical table into transactions. Year and
// month come from their columns when present so that installment
// corrections survive.
func ToTransactions(f *frame.Frame) ([]model.Transaction, error) {
	if err := requireColumns(f, "to_transactions", model.ColDate, model.ColAmount, model.ColDescription, model.ColBank); err != nil {
		return nil, err
	}
	txs := make([]model.Transaction, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		date, ok := f.Time(i, model.ColDate)
		if !ok {
			return nil, &errs.ParseError{Row: i + 1, Column: model.ColDate, Err: fmt.Errorf("missing date")}
		}
		amount, ok := f.Decimal(i, model.ColAmount)
		if !ok {
			return nil, &errs.ParseError{Row: i + 1, Column: model.ColAmount, Err: fmt.Errorf("missing amount")}
		}
		bank, _ := f.String(i, model.ColBank)
		desc, _ := f.String(i, model.ColDescription)
		cleaned, _ := f.String(i, model.ColCleanedDescription)
		cat, _ := f.String(i, model.ColCategory)
		sub, _ := f.String(i, model.ColSubcategory)

		tx := model.Transaction{
			Description:        desc,
			CleanedDescription: cleaned,
			Amount:             amount,
			Bank:               bank,
			Category:           model.StringPtr(cat),
			Subcategory:        model.StringPtr(sub),
			Recurrent:          model.RecurrentNo,
		}
		tx.SetDate(date)
		if y, ok := f.Int(i, model.ColYear); ok {
			tx.Year = y
		}
		if m, ok := f.Int(i, model.ColMonth); ok {
			tx.Month = m
		}
		if r, ok := f.String(i, model.ColRecurrent); ok && r == string(model.RecurrentYes) {
			tx.Recurrent = model.RecurrentYes
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// ExtractExpenses returns the rows with a negative amount, sign flipped.
func ExtractExpenses(txs []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, tx := range txs {
		if tx.Amount.IsNegative() {
			tx.Amount = tx.Amount.Neg()
			out = append(out, tx)
		}
	}
	return out
}

// ExtractIncomes returns the rows with a positive amount. Zero-amount rows
// belong to neither table.
func ExtractIncomes(txs []model.Transaction) []model.Transaction {
	var out []model.Transaction
	for _, tx := range txs {
		if tx.Amount.GreaterThan(decimal.Zero) {
			out = append(out, tx)
		}
	}
	return out
}
