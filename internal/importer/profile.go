package importer

import (
	"regexp"

	"github.com/llazzari/personal-finance/internal/cleaner"
	"github.com/llazzari/personal-finance/internal/frame"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

// Context tells which kind of export a profile reads.
type Context string

const (
	ContextStatement  Context = "statement"
	ContextCreditCard Context = "credit_card"
)

// Valid reports whether c is a known context.
func (c Context) Valid() bool {
	return c == ContextStatement || c == ContextCreditCard
}

// Columns maps a bank's native column names to the canonical ones.
type Columns struct {
	Date        string
	Amount      string
	Description string
	Bank        string // empty when the bank is set by a stage
}

// DefaultColumns returns the layout most Brazilian exports share.
func DefaultColumns() Columns {
	return Columns{Date: "Data", Amount: "Valor", Description: "Descrição"}
}

// Mapping returns native to canonical names.
func (c Columns) Mapping() map[string]string {
	m := map[string]string{
		c.Date:        model.ColDate,
		c.Amount:      model.ColAmount,
		c.Description: model.ColDescription,
	}
	if c.Bank != "" {
		m[c.Bank] = model.ColBank
	}
	return m
}

// ToUse returns the native columns the reader keeps.
func (c Columns) ToUse() []string {
	cols := []string{c.Date, c.Description, c.Amount}
	if c.Bank != "" {
		cols = append(cols, c.Bank)
	}
	return cols
}

// BankProfile describes how to read and clean one bank's export.
type BankProfile struct {
	Name          string
	Context       Context
	Columns       Columns
	Reader        ReaderOptions
	Patterns      []string
	PaymentMarker string
	Stages        func(p *BankProfile, n *normalize.Normalizer) []cleaner.Stage

	compiled []*regexp.Regexp
	pipeline cleaner.Stage
}

// Encoding returns the source text encoding.
func (p *BankProfile) Encoding() string {
	if p.Reader.Encoding == "" {
		return "utf-8"
	}
	return p.Reader.Encoding
}

// CompiledPatterns returns the description patterns compiled at registration.
func (p *BankProfile) CompiledPatterns() []*regexp.Regexp {
	return p.compiled
}

// Read parses decoded text into the bank's native table.
func (p *BankProfile) Read(text string) (*frame.Frame, error) {
	f, err := Read(text, p.Reader)
	if err != nil {
		return nil, withBank(err, p.Name)
	}
	return f, nil
}

// Clean runs the profile's stages in declaration order.
func (p *BankProfile) Clean(f *frame.Frame) (*frame.Frame, error) {
	out, err := p.pipeline(f)
	if err != nil {
		return nil, withBank(err, p.Name)
	}
	return out, nil
}

func (p *BankProfile) prepare(n *normalize.Normalizer) error {
	compiled, err := normalize.CompilePatterns(p.Patterns)
	if err != nil {
		return err
	}
	p.compiled = compiled
	p.pipeline = cleaner.Compose(p.Stages(p, n)...)
	return nil
}
