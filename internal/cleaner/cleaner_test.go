package cleaner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/frame"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

func pipeline() Stage {
	return Compose(
		CreateDerivedColumns(),
		CorrectAmountSign(),
		CorrectInstallmentsDate("Pagamento recebido"),
		RemoveMarkerRow("Pagamento recebido"),
		CreateBankColumn("Nubank"),
		CleanDescriptions(normalize.New(), nil),
	)
}

func TestToTransactions(t *testing.T) {
	f, err := pipeline()(canonical())
	require.NoError(t, err)

	txs, err := ToTransactions(f)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, "Loja A 1/3", txs[0].Description)
	assert.True(t, dec("-120").Equal(txs[0].Amount))
	assert.Equal(t, "Nubank", txs[0].Bank)
	assert.Nil(t, txs[0].Category)
	assert.Nil(t, txs[0].Subcategory)
	assert.Equal(t, model.RecurrentNo, txs[0].Recurrent)
	assert.NotEmpty(t, txs[0].CleanedDescription)

	// the installment correction wins over the purchase date
	assert.Equal(t, 2024, txs[1].Year)
	assert.Equal(t, 4, txs[1].Month)
	assert.Equal(t, 2, int(txs[1].Date.Month()))
}

func TestToTransactionsMissingBank(t *testing.T) {
	_, err := ToTransactions(canonical())
	var se *errs.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, model.ColBank, se.Column)
}

func TestToTransactionsNullDate(t *testing.T) {
	f := frame.New(model.ColDate, model.ColAmount, model.ColDescription, model.ColBank)
	f.Append(nil, dec("1"), "x", "Inter")

	_, err := ToTransactions(f)
	var pe *errs.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, model.ColDate, pe.Column)
}

func TestExtractExpensesAndIncomes(t *testing.T) {
	txs := []model.Transaction{
		{Description: "a", Amount: dec("-10")},
		{Description: "b", Amount: dec("25")},
		{Description: "c", Amount: dec("0")},
		{Description: "d", Amount: dec("-0.5")},
	}

	expenses := ExtractExpenses(txs)
	require.Len(t, expenses, 2)
	assert.Equal(t, "a", expenses[0].Description)
	assert.True(t, dec("10").Equal(expenses[0].Amount))
	assert.True(t, dec("0.5").Equal(expenses[1].Amount))

	incomes := ExtractIncomes(txs)
	require.Len(t, incomes, 1)
	assert.Equal(t, "b", incomes[0].Description)

	// input not mutated
	assert.True(t, dec("-10").Equal(txs[0].Amount))
}
