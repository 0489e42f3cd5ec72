package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/id"
	"github.com/llazzari/personal-finance/internal/model"
)

// Header is the CSV header of a persisted table.
const Header = "year,month,amount,bank,category,subcategory,recurrent,description,id"

const (
	numFields    = 9
	colYear      = 0
	colMonth     = 1
	colAmount    = 2
	colBank      = 3
	colCategory  = 4
	colSubcat    = 5
	colRecurrent = 6
	colDesc      = 7
	colID        = 8
)

// ReadTable reads a persisted table. The stored id column is ignored: ids are
// re-derived from row position and rows are then sorted by date.
func ReadTable(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading table CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	txs := make([]model.Transaction, 0, len(records)-1)
	for i, rec := range records[1:] {
		tx, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	id.Renumber(txs)
	SortByDate(txs)
	return txs, nil
}

// WriteTable writes txs to w, header included.
func WriteTable(w io.Writer, txs []model.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, tx := range txs {
		if err := cw.Write(MarshalRow(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SortByDate orders txs by (year, month) descending. The sort is stable, so
// sorting an already sorted table leaves it unchanged.
func SortByDate(txs []model.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Year != txs[j].Year {
			return txs[i].Year > txs[j].Year
		}
		return txs[i].Month > txs[j].Month
	})
}

// MarshalRow converts a Transaction to a CSV row. Null category and
// subcategory are written as empty strings.
func MarshalRow(tx model.Transaction) []string {
	row := make([]string, numFields)
	row[colYear] = strconv.Itoa(tx.Year)
	row[colMonth] = strconv.Itoa(tx.Month)
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colBank] = tx.Bank
	row[colCategory] = model.Deref(tx.Category)
	row[colSubcat] = model.Deref(tx.Subcategory)
	row[colRecurrent] = string(tx.Recurrent)
	row[colDesc] = tx.Description
	row[colID] = strconv.Itoa(tx.ID)
	return row
}

// UnmarshalRow converts a CSV row to a Transaction. The id field is not
// interpreted.
func UnmarshalRow(record []string) (model.Transaction, error) {
	if len(record) < numFields-1 {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	year, err := strconv.Atoi(strings.TrimSpace(record[colYear]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing year %q: %w", record[colYear], err)
	}

	month, err := strconv.Atoi(strings.TrimSpace(record[colMonth]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing month %q: %w", record[colMonth], err)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(record[colAmount]))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	recurrent := model.Recurrence(record[colRecurrent])
	if recurrent == "" {
		recurrent = model.RecurrentNo
	}

	return model.Transaction{
		Year:        year,
		Month:       month,
		Amount:      amount,
		Bank:        record[colBank],
		Category:    model.StringPtr(record[colCategory]),
		Subcategory: model.StringPtr(record[colSubcat]),
		Recurrent:   recurrent,
		Description: record[colDesc],
	}, nil
}
