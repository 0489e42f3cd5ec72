package categorize

import (
	"fmt"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/ml"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

// Categorizer predicts what the rules cannot derive.
type Categorizer struct {
	Rules         *Rules
	Subcategories ml.Predictor
	Incomes       ml.Predictor
	Normalizer    *normalize.Normalizer

	// Observe, when set, is told how many rows each prediction covered.
	Observe func(task ml.Task, rows int)
}

// Categorize predicts a subcategory for every expense that lacks one and
// backfills category and recurrence from it. Rows that already have a
// subcategory are returned untouched, ahead of the predicted ones.
func (c *Categorizer) Categorize(txs []model.Transaction) ([]model.Transaction, error) {
	if len(txs) == 0 {
		return nil, errs.ErrEmptyTable
	}
	done, todo := partition(txs, model.Transaction.IsCategorized)
	if len(todo) == 0 {
		return nil, errs.ErrNothingToCategorize
	}

	cleaned := c.clean(todo)
	labels, err := c.Subcategories.Predict(cleaned)
	if err != nil {
		return nil, fmt.Errorf("predicting subcategories: %w", err)
	}
	c.observe(ml.TaskSubcategory, len(todo))

	out := append(make([]model.Transaction, 0, len(txs)), done...)
	for i, tx := range todo {
		tx.CleanedDescription = cleaned[i]
		tx.Subcategory = model.StringPtr(labels[i])
		out = append(out, c.Rules.Apply(tx))
	}
	return out, nil
}

// CategorizeIncomes predicts a category for every income that lacks one.
// A prediction outside the income categories is an error.
func (c *Categorizer) CategorizeIncomes(txs []model.Transaction) ([]model.Transaction, error) {
	if len(txs) == 0 {
		return nil, errs.ErrEmptyTable
	}
	done, todo := partition(txs, func(tx model.Transaction) bool { return tx.Category != nil && *tx.Category != "" })
	if len(todo) == 0 {
		return nil, errs.ErrNothingToCategorize
	}

	cleaned := c.clean(todo)
	labels, err := c.Incomes.Predict(cleaned)
	if err != nil {
		return nil, fmt.Errorf("predicting income categories: %w", err)
	}
	c.observe(ml.TaskIncome, len(todo))

	out := append(make([]model.Transaction, 0, len(txs)), done...)
	for i, tx := range todo {
		tx.CleanedDescription = cleaned[i]
		key, ok := c.Rules.tax.ResolveIncome(labels[i])
		if !ok {
			return nil, fmt.Errorf("income model predicted %q, which is not an income category", labels[i])
		}
		tx.Category = model.StringPtr(key)
		out = append(out, tx)
	}
	return out, nil
}

// Recategorize reruns the rules on every row, keeping order. It is used
// after subcategories were edited by hand.
func (c *Categorizer) Recategorize(txs []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = c.Rules.Apply(tx)
	}
	return out
}

// clean recomputes cleaned descriptions without bank patterns.
func (c *Categorizer) clean(txs []model.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = c.Normalizer.Normalize(tx.Description, nil)
	}
	return out
}

func (c *Categorizer) observe(task ml.Task, rows int) {
	if c.Observe != nil {
		c.Observe(task, rows)
	}
}

func partition(txs []model.Transaction, isDone func(model.Transaction) bool) (done, todo []model.Transaction) {
	for _, tx := range txs {
		if isDone(tx) {
			done = append(done, tx)
		} else {
			todo = append(todo, tx)
		}
	}
	return done, todo
}
