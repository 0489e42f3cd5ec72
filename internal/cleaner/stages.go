package cleaner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/frame"
	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/normalize"
)

// RenameColumns maps native column names to canonical ones. Every native
// name in mapping must be present.
func RenameColumns(mapping map[string]string) Stage {
	natives := make([]string, 0, len(mapping))
	for k := range mapping {
		natives = append(natives, k)
	}
	sort.Strings(natives)
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "rename_columns", natives...); err != nil {
			return nil, err
		}
		return f.Rename(mapping), nil
	}
}

// CreateDerivedColumns adds null category and subcategory, a "no"
// recurrence and the year and month of each date.
func CreateDerivedColumns() Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "create_columns", model.ColDate); err != nil {
			return nil, err
		}
		out := f.WithColumn(model.ColCategory, func(int) any { return nil }).
			WithColumn(model.ColSubcategory, func(int) any { return nil }).
			WithColumn(model.ColYear, func(i int) any {
				if d, ok := f.Time(i, model.ColDate); ok {
					return d.Year()
				}
				return nil
			}).
			WithColumn(model.ColMonth, func(i int) any {
				if d, ok := f.Time(i, model.ColDate); ok {
					return int(d.Month())
				}
				return nil
			}).
			WithColumn(model.ColRecurrent, func(int) any { return string(model.RecurrentNo) })
		return out, nil
	}
}

// CorrectAmountSign negates every amount. Credit card exports list
// purchases as positive values.
func CorrectAmountSign() Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "correct_amount_sign", model.ColAmount); err != nil {
			return nil, err
		}
		return f.WithColumn(model.ColAmount, func(i int) any {
			if d, ok := f.Decimal(i, model.ColAmount); ok {
				return d.Neg()
			}
			return nil
		}), nil
	}
}

// CorrectInstallmentsDate moves the whole batch to the month after the
// first row whose description equals marker. A batch without the marker is
// returned unchanged.
func CorrectInstallmentsDate(marker string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "correct_installments_date", model.ColDescription, model.ColDate, model.ColYear, model.ColMonth); err != nil {
			return nil, err
		}
		var anchor time.Time
		found := false
		for i := 0; i < f.Len(); i++ {
			if d, ok := f.String(i, model.ColDescription); ok && d == marker {
				anchor, found = f.Time(i, model.ColDate)
				break
			}
		}
		if !found {
			return f, nil
		}
		month := int(anchor.Month()) + 1
		year := anchor.Year()
		if month > 12 {
			month -= 12
			year++
		}
		return f.WithColumn(model.ColMonth, func(int) any { return month }).
			WithColumn(model.ColYear, func(int) any { return year }), nil
	}
}

// RemoveMarkerRow drops every row whose description equals marker exactly.
func RemoveMarkerRow(marker string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "remove_marker_row", model.ColDescription); err != nil {
			return nil, err
		}
		return f.Filter(func(i int) bool {
			d, _ := f.String(i, model.ColDescription)
			return d != marker
		}), nil
	}
}

// DropBoundaryRows drops the first and/or last row, where some exports
// put running balances.
func DropBoundaryRows(first, last bool) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		lo, hi := 0, f.Len()
		if first {
			lo++
		}
		if last {
			hi--
		}
		return f.Slice(lo, hi), nil
	}
}

// CreateBankColumn sets the bank of every row.
func CreateBankColumn(name string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		return f.WithColumn(model.ColBank, func(int) any { return name }), nil
	}
}

// CleanDescriptions fills cleaned_description from description.
func CleanDescriptions(n *normalize.Normalizer, patterns []*regexp.Regexp) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "clean_descriptions", model.ColDescription); err != nil {
			return nil, err
		}
		return f.WithColumn(model.ColCleanedDescription, func(i int) any {
			d, _ := f.String(i, model.ColDescription)
			return n.Normalize(d, patterns)
		}), nil
	}
}

// DropMissing drops rows whose cell in col is null.
func DropMissing(col string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "drop_missing", col); err != nil {
			return nil, err
		}
		return f.Filter(func(i int) bool { return f.Get(i, col) != nil }), nil
	}
}

// SumColumns stores the sum of sources in target and drops the sources.
// Null cells count as zero.
func SumColumns(target string, sources ...string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "sum_columns", sources...); err != nil {
			return nil, err
		}
		out := f.WithColumn(target, func(i int) any {
			sum := decimal.Zero
			for _, c := range sources {
				if d, ok := f.Decimal(i, c); ok {
					sum = sum.Add(d)
				}
			}
			return sum
		})
		var drop []string
		for _, c := range sources {
			if c != target {
				drop = append(drop, c)
			}
		}
		return out.Drop(drop...), nil
	}
}

// ParseCurrencyText converts text amounts such as "R$ 1.234,56" or
// "- R$ 10,00" in col to decimals. Blank cells become null.
func ParseCurrencyText(col string) Stage {
	return func(f *frame.Frame) (*frame.Frame, error) {
		if err := requireColumns(f, "parse_currency_text", col); err != nil {
			return nil, err
		}
		values := make([]any, f.Len())
		for i := 0; i < f.Len(); i++ {
			switch v := f.Get(i, col).(type) {
			case nil:
			case decimal.Decimal:
				values[i] = v
			case string:
				if strings.TrimSpace(v) == "" {
					continue
				}
				d, err := ParseBRL(v)
				if err != nil {
					return nil, &errs.ParseError{Row: i + 1, Column: col, Err: err}
				}
				values[i] = d
			default:
				return nil, &errs.ParseError{Row: i + 1, Column: col, Err: fmt.Errorf("unexpected cell %T", v)}
			}
		}
		return f.WithColumn(col, func(i int) any { return values[i] }), nil
	}
}

// ParseBRL parses a Brazilian formatted currency string.
func ParseBRL(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	neg := strings.HasPrefix(v, "-")
	v = strings.TrimPrefix(v, "-")
	v = strings.ReplaceAll(v, "R$", "")
	v = strings.ReplaceAll(v, ".", "")
	v = strings.ReplaceAll(v, ",", ".")
	v = strings.Join(strings.Fields(v), "")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
