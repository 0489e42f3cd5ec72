package importer

import (
	"github.com/llazzari/personal-finance/internal/cleaner"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

const (
	dayFirst = "02/01/2006"
	isoDate  = "2006-01-02"
)

// DefaultRegistry returns a registry with every built-in bank profile.
func DefaultRegistry(n *normalize.Normalizer) *Registry {
	r := NewRegistry(n)
	for _, p := range []*BankProfile{
		bbStatement(),
		bradescoStatement(),
		nubankStatement(),
		interStatement(),
		coraStatement(),
		personalTable(),
		c6CreditCard(),
		nubankCreditCard(),
		sicrediCreditCard(),
	} {
		r.Register(p)
	}
	return r
}

// defaultReader keeps the profile's columns, parsing dates day-first and
// amounts as plain decimals.
func defaultReader(c Columns) ReaderOptions {
	return ReaderOptions{
		DateLayout:     dayFirst,
		UseColumns:     c.ToUse(),
		DateColumns:    []string{c.Date},
		NumericColumns: []string{c.Amount},
	}
}

func bbStatement() *BankProfile {
	cols := DefaultColumns()
	cols.Description = "Histórico"
	rd := defaultReader(cols)
	rd.Encoding = "latin-1"
	return &BankProfile{
		Name:    "Banco do Brasil",
		Context: ContextStatement,
		Columns: cols,
		Reader:  rd,
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				// first and last rows hold the account balance
				cleaner.DropBoundaryRows(true, true),
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CreateBankColumn(p.Name),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
			}
		},
	}
}

const (
	bradescoCredit = "Crédito (R$)"
	bradescoDebit  = "Débito (R$)"
)

func bradescoStatement() *BankProfile {
	cols := Columns{Date: "Data", Amount: model.ColAmount, Description: "Histórico"}
	return &BankProfile{
		Name:    "Bradesco",
		Context: ContextStatement,
		Columns: cols,
		Reader: ReaderOptions{
			Encoding:       "latin-1",
			Delimiter:      ';',
			SkipRows:       1,
			SkipFooter:     30,
			DateLayout:     dayFirst,
			Decimal:        ",",
			Thousands:      ".",
			UseColumns:     []string{"Data", "Histórico", bradescoCredit, bradescoDebit},
			DateColumns:    []string{"Data"},
			NumericColumns: []string{bradescoCredit, bradescoDebit},
			SkipBadLines:   true,
		},
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.DropMissing("Data"),
				cleaner.SumColumns(model.ColAmount, bradescoCredit, bradescoDebit),
				cleaner.DropBoundaryRows(true, true),
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
				cleaner.CreateBankColumn(p.Name),
			}
		},
	}
}

func nubankStatement() *BankProfile {
	cols := DefaultColumns()
	return &BankProfile{
		Name:          "Nubank",
		Context:       ContextStatement,
		Columns:       cols,
		Reader:        defaultReader(cols),
		Patterns:      []string{`^.*?-`, `-.*$`},
		PaymentMarker: "Pagamento de fatura",
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
				cleaner.CreateBankColumn(p.Name),
				cleaner.RemoveMarkerRow(p.PaymentMarker),
			}
		},
	}
}

func interStatement() *BankProfile {
	cols := DefaultColumns()
	cols.Date = "Data Lançamento"
	rd := defaultReader(cols)
	rd.Delimiter = ';'
	rd.SkipRows = 4
	rd.Decimal = ","
	rd.Thousands = "."
	return &BankProfile{
		Name:    "Inter",
		Context: ContextStatement,
		Columns: cols,
		Reader:  rd,
		Patterns: []string{
			`^.*?estabelecimento\s{1}`,
			`^Pix .*-`,
			`-.*$`,
			`\d{1,}gb mensal`,
			`redes sociais`,
		},
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
				cleaner.CreateBankColumn(p.Name),
			}
		},
	}
}

func coraStatement() *BankProfile {
	cols := DefaultColumns()
	cols.Description = "Identificação"
	return &BankProfile{
		Name:    "Cora",
		Context: ContextStatement,
		Columns: cols,
		Reader:  defaultReader(cols),
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
				cleaner.CreateBankColumn(p.Name),
			}
		},
	}
}

// personalTable reads a hand-kept table that already names the bank of
// each row.
func personalTable() *BankProfile {
	cols := DefaultColumns()
	cols.Bank = "Banco"
	return &BankProfile{
		Name:    "Tabela pessoal",
		Context: ContextStatement,
		Columns: cols,
		Reader:  defaultReader(cols),
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
			}
		},
	}
}

func c6CreditCard() *BankProfile {
	cols := DefaultColumns()
	cols.Date = "Data de Compra"
	cols.Amount = "Valor (em R$)"
	rd := defaultReader(cols)
	rd.Delimiter = ';'
	return &BankProfile{
		Name:          "C6",
		Context:       ContextCreditCard,
		Columns:       cols,
		Reader:        rd,
		PaymentMarker: "Inclusao de Pagamento    ",
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CorrectAmountSign(),
				cleaner.CorrectInstallmentsDate(p.PaymentMarker),
				cleaner.RemoveMarkerRow(p.PaymentMarker),
				cleaner.CreateBankColumn(p.Name),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
			}
		},
	}
}

func nubankCreditCard() *BankProfile {
	cols := Columns{Date: "date", Amount: "amount", Description: "title"}
	rd := defaultReader(cols)
	rd.DateLayout = isoDate
	return &BankProfile{
		Name:          "Nubank",
		Context:       ContextCreditCard,
		Columns:       cols,
		Reader:        rd,
		Patterns:      []string{`Pg \*`, `\d+/\d$`, `Intersho$`},
		PaymentMarker: "Pagamento recebido",
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CleanDescriptions(n, p.CompiledPatterns()),
				cleaner.CorrectAmountSign(),
				cleaner.CorrectInstallmentsDate(p.PaymentMarker),
				cleaner.RemoveMarkerRow(p.PaymentMarker),
				cleaner.CreateBankColumn(p.Name),
			}
		},
	}
}

func sicrediCreditCard() *BankProfile {
	cols := Columns{Date: " Data ", Amount: " Valor ", Description: " Estabelecimento "}
	return &BankProfile{
		Name:    "Sicredi",
		Context: ContextCreditCard,
		Columns: cols,
		Reader: ReaderOptions{
			Delimiter:   ';',
			SkipRows:    18,
			DateLayout:  dayFirst,
			UseColumns:  cols.ToUse(),
			DateColumns: []string{cols.Date},
		},
		PaymentMarker: "PAGAMENTO DEBITO EM",
		Stages: func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage {
			return []cleaner.Stage{
				cleaner.ParseCurrencyText(p.Columns.Amount),
				cleaner.RenameColumns(p.Columns.Mapping()),
				cleaner.CreateDerivedColumns(),
				cleaner.CorrectAmountSign(),
				cleaner.CorrectInstallmentsDate(p.PaymentMarker),
				cleaner.RemoveMarkerRow(p.PaymentMarker),
				cleaner.CreateBankColumn(p.Name),
			}
		},
	}
}
