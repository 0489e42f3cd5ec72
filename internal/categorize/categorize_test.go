package categorize

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/ml"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
	"github.com/llazzari/personal-finance/internal/taxonomy"
)

type predictFunc func([]string) ([]string, error)

func (f predictFunc) Predict(d []string) ([]string, error) { return f(d) }

// constant predicts the same label for every row and records its input.
func constant(label string, seen *[]string) ml.Predictor {
	return predictFunc(func(d []string) ([]string, error) {
		*seen = append(*seen, d...)
		out := make([]string, len(d))
		for i := range out {
			out[i] = label
		}
		return out, nil
	})
}

func newCategorizer(t *testing.T, sub, inc ml.Predictor) *Categorizer {
	t.Helper()
	labels, err := taxonomy.DefaultLabels("pt")
	require.NoError(t, err)
	return &Categorizer{
		Rules:         NewRules(taxonomy.Default().WithLabels(labels)),
		Subcategories: sub,
		Incomes:       inc,
		Normalizer:    normalize.New(),
	}
}

func tx(desc string, sub *string) model.Transaction {
	return model.Transaction{Description: desc, Amount: decimal.NewFromInt(10), Bank: "Inter", Subcategory: sub, Recurrent: model.RecurrentNo}
}

func TestRulesApply(t *testing.T) {
	labels, err := taxonomy.DefaultLabels("pt")
	require.NoError(t, err)
	r := NewRules(taxonomy.Default().WithLabels(labels))

	got := r.Apply(tx("vivo", model.StringPtr("mobile_cell_phone")))
	assert.Equal(t, "utilities", model.Deref(got.Category))
	assert.Equal(t, model.RecurrentYes, got.Recurrent)

	got = r.Apply(tx("restaurante", model.StringPtr("Restaurantes")))
	assert.Equal(t, "dining_out", model.Deref(got.Subcategory))
	assert.Equal(t, "food", model.Deref(got.Category))
	assert.Equal(t, model.RecurrentNo, got.Recurrent)

	got = r.Apply(tx("?", model.StringPtr("no such thing")))
	assert.Nil(t, got.Category)
	assert.Equal(t, "no such thing", model.Deref(got.Subcategory))
	assert.Equal(t, model.RecurrentNo, got.Recurrent)

	got = r.Apply(tx("none", nil))
	assert.Nil(t, got.Category)
}

func TestCategorize(t *testing.T) {
	var seen []string
	c := newCategorizer(t, constant("groceries", &seen), nil)
	var observed int
	c.Observe = func(task ml.Task, rows int) {
		assert.Equal(t, ml.TaskSubcategory, task)
		observed = rows
	}

	in := []model.Transaction{
		tx("Mercado Silva", nil),
		tx("Netflix", model.StringPtr("subscriptions")),
		tx("Pix enviado Padaria", nil),
	}
	out, err := c.Categorize(in)
	require.NoError(t, err)
	require.Len(t, out, 3)

	// categorized rows first and untouched
	assert.Equal(t, "Netflix", out[0].Description)
	assert.Equal(t, in[1], out[0])

	for _, got := range out[1:] {
		assert.Equal(t, "groceries", model.Deref(got.Subcategory))
		assert.Equal(t, "food", model.Deref(got.Category))
		assert.Equal(t, model.RecurrentYes, got.Recurrent)
	}
	assert.Equal(t, "Mercado Silva", out[1].Description)
	assert.Equal(t, 2, observed)

	n := normalize.New()
	assert.Equal(t, []string{n.Normalize("Mercado Silva", nil), n.Normalize("Pix enviado Padaria", nil)}, seen)
	assert.Equal(t, seen[0], out[1].CleanedDescription)
}

func TestCategorizeNoOps(t *testing.T) {
	c := newCategorizer(t, constant("groceries", new([]string)), nil)

	_, err := c.Categorize(nil)
	assert.ErrorIs(t, err, errs.ErrEmptyTable)
	assert.True(t, errs.IsNoOp(err))

	_, err = c.Categorize([]model.Transaction{tx("a", model.StringPtr("pets"))})
	assert.ErrorIs(t, err, errs.ErrNothingToCategorize)
	assert.True(t, errs.IsNoOp(err))
}

func TestCategorizePredictorFailure(t *testing.T) {
	boom := errors.New("model missing")
	c := newCategorizer(t, predictFunc(func([]string) ([]string, error) { return nil, boom }), nil)

	_, err := c.Categorize([]model.Transaction{tx("a", nil)})
	require.ErrorIs(t, err, boom)
	assert.False(t, errs.IsNoOp(err))
}

func TestCategorizeIncomes(t *testing.T) {
	var seen []string
	c := newCategorizer(t, nil, constant("Salário", &seen))

	in := []model.Transaction{
		{Description: "Empresa X", Amount: decimal.NewFromInt(5000), Bank: "Inter"},
		{Description: "Reembolso", Amount: decimal.NewFromInt(20), Bank: "Inter", Category: model.StringPtr("refunds")},
	}
	out, err := c.CategorizeIncomes(in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "refunds", model.Deref(out[0].Category))
	assert.Equal(t, "salary", model.Deref(out[1].Category))
	assert.Len(t, seen, 1)

	_, err = c.CategorizeIncomes(out)
	assert.ErrorIs(t, err, errs.ErrNothingToCategorize)
}

func TestCategorizeIncomesRejectsExpenseLabel(t *testing.T) {
	c := newCategorizer(t, nil, constant("groceries", new([]string)))
	_, err := c.CategorizeIncomes([]model.Transaction{{Description: "x", Amount: decimal.NewFromInt(1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "groceries")
}

func TestRecategorize(t *testing.T) {
	c := newCategorizer(t, nil, nil)
	in := []model.Transaction{
		tx("academia", model.StringPtr("Academia")),
		tx("?", nil),
	}
	in[1].Category = model.StringPtr("stale")

	out := c.Recategorize(in)
	require.Len(t, out, 2)
	assert.Equal(t, "fitness", model.Deref(out[0].Subcategory))
	assert.Equal(t, "health", model.Deref(out[0].Category))
	assert.Equal(t, model.RecurrentYes, out[0].Recurrent)
	assert.Nil(t, out[1].Category)
	// input untouched
	assert.Equal(t, "Academia", model.Deref(in[0].Subcategory))
}

func TestCategorizeWithTrainedModel(t *testing.T) {
	n := normalize.New()
	trained, err := ml.Train([]ml.Sample{
		{Text: n.Normalize("Supermercado Bom Preço", nil), Label: "groceries"},
		{Text: n.Normalize("Mercado Silva", nil), Label: "groceries"},
		{Text: n.Normalize("Uber Trip", nil), Label: "ride_sharing"},
		{Text: n.Normalize("Uber", nil), Label: "ride_sharing"},
	})
	require.NoError(t, err)

	c := newCategorizer(t, trained.Model(), nil)
	out, err := c.Categorize([]model.Transaction{tx("UBER *TRIP", nil), tx("MERCADO SILVA", nil)})
	require.NoError(t, err)
	assert.Equal(t, "ride_sharing", model.Deref(out[0].Subcategory))
	assert.Equal(t, "transportation", model.Deref(out[0].Category))
	assert.Equal(t, "groceries", model.Deref(out[1].Subcategory))
}
