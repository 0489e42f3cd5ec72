// Package source answers the aggregation queries the dashboard asks of a
// profile's canonical tables.
//
// A Source is an immutable snapshot: build a new one per query. Every view
// returns an empty result, never an error, when no row matches.
package source

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/taxonomy"
)

type entry struct {
	model.Transaction
	kind model.Kind
}

// Source is a read-only view over one or more canonical tables.
type Source struct {
	rows []entry
	tax  *taxonomy.Taxonomy
}

// New snapshots txs as a table of the given kind. tax annotates categories
// and, when it carries labels, localizes month names.
func New(tax *taxonomy.Taxonomy, kind model.Kind, txs []model.Transaction) *Source {
	rows := make([]entry, len(txs))
	for i, tx := range txs {
		rows[i] = entry{Transaction: tx, kind: kind}
	}
	return &Source{rows: rows, tax: tax}
}

// Combine concatenates sources into one view. The taxonomy of the first
// non-nil source is used.
func Combine(sources ...*Source) *Source {
	out := &Source{}
	for _, s := range sources {
		if s == nil {
			continue
		}
		if out.tax == nil {
			out.tax = s.tax
		}
		out.rows = append(out.rows, s.rows...)
	}
	return out
}

// Len returns the number of rows.
func (s *Source) Len() int { return len(s.rows) }

// IsEmpty reports whether the view has no rows.
func (s *Source) IsEmpty() bool { return len(s.rows) == 0 }

// Years returns the distinct years in order of first appearance.
func (s *Source) Years() []int {
	return distinct(s.rows, func(e entry) (int, bool) { return e.Year, true })
}

// Months returns the distinct months of year in order of first appearance.
func (s *Source) Months(year int) []int {
	return distinct(s.rows, func(e entry) (int, bool) { return e.Month, e.Year == year })
}

// TotalMonthAmount sums the signed amounts of (year, month).
func (s *Source) TotalMonthAmount(year, month int) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.rows {
		if e.Year == year && e.Month == month {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// SubcategoryTotal is the spend of one subcategory in a month.
type SubcategoryTotal struct {
	Subcategory string          `json:"subcategory"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
}

// MonthExpenseBySubcategory sums (year, month) per subcategory, smallest
// first, each annotated with its parent category. Rows without a
// subcategory are left out.
func (s *Source) MonthExpenseBySubcategory(year, month int) []SubcategoryTotal {
	sums := newGroups[string]()
	for _, e := range s.rows {
		if e.Year != year || e.Month != month || e.Subcategory == nil {
			continue
		}
		sums.add(*e.Subcategory, e.Amount)
	}

	out := make([]SubcategoryTotal, 0, len(sums.order))
	for _, sub := range sums.sorted(cmp.Compare[string]) {
		var category string
		if s.tax != nil {
			category, _ = s.tax.CategoryOf(sub)
		}
		out = append(out, SubcategoryTotal{Subcategory: sub, Category: category, Amount: sums.total(sub)})
	}
	slices.SortStableFunc(out, func(a, b SubcategoryTotal) int { return a.Amount.Cmp(b.Amount) })
	return out
}

// CategoryTotal is the amount of one category in a month.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthIncomeByCategory sums (year, month) per category, smallest first.
func (s *Source) MonthIncomeByCategory(month, year int) []CategoryTotal {
	sums := newGroups[string]()
	for _, e := range s.rows {
		if e.Year != year || e.Month != month || e.Category == nil {
			continue
		}
		sums.add(*e.Category, e.Amount)
	}

	out := make([]CategoryTotal, 0, len(sums.order))
	for _, c := range sums.sorted(cmp.Compare[string]) {
		out = append(out, CategoryTotal{Category: c, Amount: sums.total(c)})
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int { return a.Amount.Cmp(b.Amount) })
	return out
}

// MonthPoint is one (month, recurrence, type) cell of a year's evolution.
type MonthPoint struct {
	Month     int              `json:"month"`
	MonthName string           `json:"month_name"`
	Recurrent model.Recurrence `json:"recurrent"`
	Type      model.Kind       `json:"type"`
	Amount    decimal.Decimal  `json:"amount"`
}

type evolutionKey struct {
	month     int
	recurrent model.Recurrence
	kind      model.Kind
}

// Evolution sums year per (month, recurrence, type), ordered by those keys.
func (s *Source) Evolution(year int) []MonthPoint {
	sums := newGroups[evolutionKey]()
	for _, e := range s.rows {
		if e.Year != year || e.Recurrent == "" {
			continue
		}
		sums.add(evolutionKey{month: e.Month, recurrent: e.Recurrent, kind: e.kind}, e.Amount)
	}

	keys := sums.sorted(func(a, b evolutionKey) int {
		return cmp.Or(
			cmp.Compare(a.month, b.month),
			cmp.Compare(a.recurrent, b.recurrent),
			cmp.Compare(a.kind, b.kind),
		)
	})
	out := make([]MonthPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthPoint{
			Month:     k.month,
			MonthName: s.monthName(k.month),
			Recurrent: k.recurrent,
			Type:      k.kind,
			Amount:    sums.total(k),
		})
	}
	return out
}

// YearPoint is one (year, type) cell of the yearly evolution.
type YearPoint struct {
	Year   int             `json:"year"`
	Type   model.Kind      `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type yearKey struct {
	year int
	kind model.Kind
}

// YearlyEvolution sums every row per (year, type).
func (s *Source) YearlyEvolution() []YearPoint {
	sums := newGroups[yearKey]()
	for _, e := range s.rows {
		sums.add(yearKey{year: e.Year, kind: e.kind}, e.Amount)
	}

	keys := sums.sorted(func(a, b yearKey) int {
		return cmp.Or(cmp.Compare(a.year, b.year), cmp.Compare(a.kind, b.kind))
	})
	out := make([]YearPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, YearPoint{Year: k.year, Type: k.kind, Amount: sums.total(k)})
	}
	return out
}

// CategoryPoint is one (month, category) cell of a year.
type CategoryPoint struct {
	Month     int             `json:"month"`
	MonthName string          `json:"month_name"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
}

type categoryKey struct {
	month    int
	category string
}

// EvolutionPerCategory sums year per (month, category).
func (s *Source) EvolutionPerCategory(year int) []CategoryPoint {
	sums := newGroups[categoryKey]()
	for _, e := range s.rows {
		if e.Year != year || e.Category == nil {
			continue
		}
		sums.add(categoryKey{month: e.Month, category: *e.Category}, e.Amount)
	}

	keys := sums.sorted(func(a, b categoryKey) int {
		return cmp.Or(cmp.Compare(a.month, b.month), cmp.Compare(a.category, b.category))
	})
	out := make([]CategoryPoint, 0, len(keys))
	for _, k := range keys {
		out = append(out, CategoryPoint{
			Month:     k.month,
			MonthName: s.monthName(k.month),
			Category:  k.category,
			Amount:    sums.total(k),
		})
	}
	return out
}

func (s *Source) monthName(m int) string {
	if s.tax != nil && s.tax.Labels() != nil {
		if name := s.tax.Labels().MonthShort(m); name != "" {
			return name
		}
	}
	if m < 1 || m > 12 {
		return ""
	}
	return time.Month(m).String()[:3]
}

// groups accumulates decimal sums per key, remembering first-seen order.
type groups[K comparable] struct {
	sums  map[K]decimal.Decimal
	order []K
}

func newGroups[K comparable]() *groups[K] {
	return &groups[K]{sums: make(map[K]decimal.Decimal)}
}

func (g *groups[K]) add(k K, v decimal.Decimal) {
	cur, ok := g.sums[k]
	if !ok {
		g.order = append(g.order, k)
		cur = decimal.Zero
	}
	g.sums[k] = cur.Add(v)
}

// total returns the sum for k rounded to cents.
func (g *groups[K]) total(k K) decimal.Decimal {
	return g.sums[k].Round(2)
}

func (g *groups[K]) sorted(compare func(a, b K) int) []K {
	keys := slices.Clone(g.order)
	slices.SortFunc(keys, compare)
	return keys
}

func distinct(rows []entry, key func(entry) (int, bool)) []int {
	seen := make(map[int]bool)
	out := []int{}
	for _, e := range rows {
		k, ok := key(e)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
