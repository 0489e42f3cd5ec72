package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llazzari/personal-finance/internal/cleaner"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

func testProfile(name string, ctx Context) *BankProfile {
	return &BankProfile{
		Name:    name,
		Context: ctx,
		Columns: DefaultColumns(),
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{cleaner.RenameColumns(p.Columns.Mapping())}
		},
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry(normalize.New())
	assert.Nil(t, r.Get(ContextStatement, "nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry(normalize.New())
	r.Register(testProfile("Inter", ContextStatement))
	assert.NotNil(t, r.Get(ContextStatement, "inter"))
	assert.NotNil(t, r.Get(ContextStatement, "INTER"))
	assert.Nil(t, r.Get(ContextCreditCard, "Inter"))
}

func TestRegistry_Duplicate(t *testing.T) {
	r := NewRegistry(normalize.New())
	r.Register(testProfile("Inter", ContextStatement))
	assert.Panics(t, func() { r.Register(testProfile("inter", ContextStatement)) })
	// same name under another context is a different profile
	assert.NotPanics(t, func() { r.Register(testProfile("Inter", ContextCreditCard)) })
}

func TestRegistry_RejectsBadProfiles(t *testing.T) {
	r := NewRegistry(normalize.New())
	assert.Panics(t, func() { r.Register(testProfile("X", Context("loan"))) })

	p := testProfile("Y", ContextStatement)
	p.Patterns = []string{"("}
	assert.Panics(t, func() { r.Register(p) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry(normalize.New())

	assert.Equal(t, []string{"Banco do Brasil", "Bradesco", "Cora", "Inter", "Nubank", "Tabela pessoal"}, r.Names(ContextStatement))
	assert.Equal(t, []string{"C6", "Nubank", "Sicredi"}, r.Names(ContextCreditCard))

	nuStatement := r.Get(ContextStatement, "nubank")
	nuCard := r.Get(ContextCreditCard, "nubank")
	require.NotNil(t, nuStatement)
	require.NotNil(t, nuCard)
	assert.NotSame(t, nuStatement, nuCard)
	assert.Equal(t, "Pagamento de fatura", nuStatement.PaymentMarker)
	assert.Equal(t, "Pagamento recebido", nuCard.PaymentMarker)
	assert.Len(t, nuCard.CompiledPatterns(), 3)

	assert.Equal(t, "latin-1", r.Get(ContextStatement, "Banco do Brasil").Encoding())
	assert.Equal(t, "utf-8", r.Get(ContextCreditCard, "C6").Encoding())
	assert.Len(t, r.All(), 9)
	assert.Equal(t, ContextStatement, r.All()[0].Context)
}

func TestColumns(t *testing.T) {
	c := DefaultColumns()
	assert.Equal(t, map[string]string{
		"Data":      model.ColDate,
		"Valor":     model.ColAmount,
		"Descrição": model.ColDescription,
	}, c.Mapping())
	assert.Equal(t, []string{"Data", "Descrição", "Valor"}, c.ToUse())

	c.Bank = "Banco"
	assert.Equal(t, model.ColBank, c.Mapping()["Banco"])
	assert.Len(t, c.ToUse(), 4)
}
