package api

import (
	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/model"
)

// Row is the wire form of a transaction.
type Row struct {
	ID                 int              `json:"id"`
	Date               string           `json:"date,omitempty"`
	Year               int              `json:"year" validate:"gte=1"`
	Month              int              `json:"month" validate:"gte=1,lte=12"`
	Amount             decimal.Decimal  `json:"amount"`
	Bank               string           `json:"bank" validate:"required"`
	Category           *string          `json:"category"`
	Subcategory        *string          `json:"subcategory"`
	Recurrent          model.Recurrence `json:"recurrent" validate:"omitempty,oneof=yes no"`
	Description        string           `json:"description" validate:"required"`
	CleanedDescription string           `json:"cleaned_description,omitempty"`
}

const dateLayout = "2006-01-02"

func toRow(tx model.Transaction) Row {
	r := Row{
		ID:                 tx.ID,
		Year:               tx.Year,
		Month:              tx.Month,
		Amount:             tx.Amount,
		Bank:               tx.Bank,
		Category:           tx.Category,
		Subcategory:        tx.Subcategory,
		Recurrent:          tx.Recurrent,
		Description:        tx.Description,
		CleanedDescription: tx.CleanedDescription,
	}
	if !tx.Date.IsZero() {
		r.Date = tx.Date.Format(dateLayout)
	}
	return r
}

func toRows(txs []model.Transaction) []Row {
	out := make([]Row, len(txs))
	for i, tx := range txs {
		out[i] = toRow(tx)
	}
	return out
}

func fromRows(rows []Row) []model.Transaction {
	out := make([]model.Transaction, len(rows))
	for i, r := range rows {
		rec := r.Recurrent
		if rec == "" {
			rec = model.RecurrentNo
		}
		out[i] = model.Transaction{
			ID:                 r.ID,
			Year:               r.Year,
			Month:              r.Month,
			Amount:             r.Amount,
			Bank:               r.Bank,
			Category:           model.StringPtr(model.Deref(r.Category)),
			Subcategory:        model.StringPtr(model.Deref(r.Subcategory)),
			Recurrent:          rec,
			Description:        r.Description,
			CleanedDescription: r.CleanedDescription,
		}
	}
	return out
}

// UploadRequest is the body of POST /api/uploads.
type UploadRequest struct {
	Profile  string   `json:"profile" validate:"required"`
	Context  string   `json:"context" validate:"required,oneof=statement credit_card"`
	Bank     string   `json:"bank" validate:"required"`
	Contents []string `json:"contents" validate:"required,min=1"`
	Save     bool     `json:"save"`
}

// UploadResponse is the parsed batch.
type UploadResponse struct {
	BatchID  string `json:"batch_id"`
	Expenses []Row  `json:"expenses"`
	Incomes  []Row  `json:"incomes"`
}

// CategorizeRequest is the body of POST /api/categorize.
type CategorizeRequest struct {
	Rows    []Row `json:"rows" validate:"dive"`
	Incomes bool  `json:"incomes"`
}

// CategorizeResponse reports whether any row changed.
type CategorizeResponse struct {
	Rows    []Row `json:"rows"`
	Updated bool  `json:"updated"`
}

// TableRequest is the body of PUT /api/tables/{profile}/{kind}.
type TableRequest struct {
	Rows []Row `json:"rows" validate:"dive"`
}

// TableResponse lists a saved table.
type TableResponse struct {
	Rows []Row `json:"rows"`
}

// Bank describes a registered bank profile.
type Bank struct {
	Name     string `json:"name"`
	Context  string `json:"context"`
	Encoding string `json:"encoding"`
}
