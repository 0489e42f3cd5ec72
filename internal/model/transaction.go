package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Canonical column names shared by every bank after cleaning.
const (
	ColDate               = "date"
	ColAmount             = "amount"
	ColDescription        = "description"
	ColCleanedDescription = "cleaned_description"
	ColBank               = "bank"
	ColCategory           = "category"
	ColSubcategory        = "subcategory"
	ColRecurrent          = "recurrent"
	ColYear               = "year"
	ColMonth              = "month"
	ColID                 = "id"
	ColType               = "type"
)

// Recurrence flags whether a transaction belongs to a recurring subcategory.
type Recurrence string

const (
	RecurrentYes Recurrence = "yes"
	RecurrentNo  Recurrence = "no"
)

// Kind separates the two tables a profile keeps.
type Kind string

const (
	KindExpense Kind = "expenses"
	KindIncome  Kind = "incomes"
)

// Valid reports whether k is a known table kind.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Transaction is one normalized row of the canonical table.
type Transaction struct {
	ID                 int
	Date               time.Time // zero for rows loaded from the persisted table
	Description        string
	CleanedDescription string
	Amount             decimal.Decimal // negative = expense before the expense/income split
	Bank               string
	Category           *string // nil until categorized
	Subcategory        *string
	Recurrent          Recurrence
	Year               int
	Month              int
}

// SetDate assigns the date and the year/month derived from it.
func (t *Transaction) SetDate(d time.Time) {
	t.Date = d
	t.Year = d.Year()
	t.Month = int(d.Month())
}

// IsCategorized reports whether the row already has a subcategory.
func (t Transaction) IsCategorized() bool {
	return t.Subcategory != nil && *t.Subcategory != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
