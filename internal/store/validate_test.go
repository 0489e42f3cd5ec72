package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/llazzari/personal-finance/internal/model"
)

func TestValidateRecords_Valid(t *testing.T) {
	verrs := ValidateRecords([]model.Transaction{
		tx(0, 2024, 1, "10", "a"),
		tx(1, 2024, 12, "20", "b"),
	})
	assert.Empty(t, verrs)
}

func TestValidateRecords(t *testing.T) {
	tests := []struct {
		name string
		edit func(*model.Transaction)
		rule string
	}{
		{"month zero", func(x *model.Transaction) { x.Month = 0 }, "month"},
		{"month thirteen", func(x *model.Transaction) { x.Month = 13 }, "month"},
		{"year zero", func(x *model.Transaction) { x.Year = 0 }, "year"},
		{"blank bank", func(x *model.Transaction) { x.Bank = "  " }, "bank"},
		{"blank description", func(x *model.Transaction) { x.Description = "" }, "description"},
		{"duplicate id", func(x *model.Transaction) { x.ID = 0 }, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			second := tx(1, 2024, 2, "5", "second")
			tt.edit(&second)
			verrs := ValidateRecords([]model.Transaction{tx(0, 2024, 1, "1", "first"), second})
			if assert.Len(t, verrs, 1) {
				assert.Equal(t, tt.rule, verrs[0].Rule)
				assert.Equal(t, 1, verrs[0].Row)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	ve := ValidationError{Rule: "month", Row: 3, Description: "month 0 out of range 1..12"}
	assert.Equal(t, "month [row 3]: month 0 out of range 1..12", ve.Error())
}
