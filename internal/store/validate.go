package store

import (
	"fmt"
	"strings"

	"github.com/llazzari/personal-finance/internal/model"
)

// ValidationError describes a record that must not be persisted.
type ValidationError struct {
	Rule        string
	Row         int
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [row %d]: %s", e.Rule, e.Row, e.Description)
}

// ValidateRecords checks txs against the rules every saved table keeps.
// An empty result means the table can be written.
func ValidateRecords(txs []model.Transaction) []ValidationError {
	var errs []ValidationError
	seen := make(map[int]int, len(txs))

	for i, tx := range txs {
		if tx.Month < 1 || tx.Month > 12 {
			errs = append(errs, ValidationError{
				Rule:        "month",
				Row:         i,
				Description: fmt.Sprintf("month %d out of range 1..12", tx.Month),
			})
		}
		if tx.Year <= 0 {
			errs = append(errs, ValidationError{
				Rule:        "year",
				Row:         i,
				Description: fmt.Sprintf("year %d must be positive", tx.Year),
			})
		}
		if strings.TrimSpace(tx.Bank) == "" {
			errs = append(errs, ValidationError{
				Rule:        "bank",
				Row:         i,
				Description: "bank is empty",
			})
		}
		if strings.TrimSpace(tx.Description) == "" {
			errs = append(errs, ValidationError{
				Rule:        "description",
				Row:         i,
				Description: "description is empty",
			})
		}
		if prev, ok := seen[tx.ID]; ok {
			errs = append(errs, ValidationError{
				Rule:        "id",
				Row:         i,
				Description: fmt.Sprintf("id %d already used by row %d", tx.ID, prev),
			})
			continue
		}
		seen[tx.ID] = i
	}

	return errs
}

// Validate runs ValidateRecords and joins the failures into one error.
func Validate(txs []model.Transaction) error {
	if verrs := ValidateRecords(txs); len(verrs) > 0 {
		return joinValidation(verrs)
	}
	return nil
}

func joinValidation(verrs []ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}
