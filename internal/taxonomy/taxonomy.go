// Package taxonomy holds the two-level expense taxonomy, the income
// categories and the set of recurring subcategories.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCategories []byte

// Group is one expense category and its subcategories.
type Group struct {
	Category      string   `yaml:"category"`
	Subcategories []string `yaml:"subcategories"`
}

type file struct {
	Expenses  []Group  `yaml:"expenses"`
	Incomes   []string `yaml:"incomes"`
	Recurrent []string `yaml:"recurrent"`
}

// Taxonomy provides lookups over the category tree. It is immutable once
// built and safe to share.
type Taxonomy struct {
	groups    []Group
	incomes   []string
	recurrent map[string]bool
	parent    map[string]string
	income    map[string]bool
	labels    *Labels
}

// Parse builds a Taxonomy from YAML and validates it.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	t := &Taxonomy{
		groups:    f.Expenses,
		incomes:   f.Incomes,
		recurrent: make(map[string]bool, len(f.Recurrent)),
		parent:    make(map[string]string),
		income:    make(map[string]bool, len(f.Incomes)),
	}
	for _, g := range f.Expenses {
		for _, s := range g.Subcategories {
			// first match wins
			if _, ok := t.parent[s]; !ok {
				t.parent[s] = g.Category
			}
		}
	}
	for _, s := range f.Recurrent {
		t.recurrent[s] = true
	}
	for _, c := range f.Incomes {
		t.income[c] = true
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads a taxonomy file.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	return Parse(data)
}

// Default returns the built-in taxonomy.
func Default() *Taxonomy {
	t, err := Parse(defaultCategories)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: built-in categories: %v", err))
	}
	return t
}

// WithLabels returns a copy of t that also resolves display labels.
func (t *Taxonomy) WithLabels(l *Labels) *Taxonomy {
	out := *t
	out.labels = l
	return &out
}

// Labels returns the attached labels, or nil.
func (t *Taxonomy) Labels() *Labels {
	return t.labels
}

// Validate checks that every subcategory appears under a single category,
// that recurrent entries are known subcategories and that income
// categories are unique.
func (t *Taxonomy) Validate() error {
	if len(t.groups) == 0 {
		return fmt.Errorf("taxonomy has no expense categories")
	}
	seen := make(map[string]string)
	cats := make(map[string]bool)
	for _, g := range t.groups {
		if g.Category == "" {
			return fmt.Errorf("taxonomy has an unnamed category")
		}
		if cats[g.Category] {
			return fmt.Errorf("category %q listed twice", g.Category)
		}
		cats[g.Category] = true
		for _, s := range g.Subcategories {
			if prev, ok := seen[s]; ok {
				return fmt.Errorf("subcategory %q listed under %q and %q", s, prev, g.Category)
			}
			seen[s] = g.Category
		}
	}
	for s := range t.recurrent {
		if _, ok := seen[s]; !ok {
			return fmt.Errorf("recurrent subcategory %q is not in the taxonomy", s)
		}
	}
	inc := make(map[string]bool)
	for _, c := range t.incomes {
		if inc[c] {
			return fmt.Errorf("income category %q listed twice", c)
		}
		inc[c] = true
	}
	return nil
}

// Groups returns the expense categories in declaration order.
func (t *Taxonomy) Groups() []Group {
	return append([]Group(nil), t.groups...)
}

// IncomeCategories returns the income categories in declaration order.
func (t *Taxonomy) IncomeCategories() []string {
	return append([]string(nil), t.incomes...)
}

// ResolveSubcategory maps a subcategory key or display label to its key.
func (t *Taxonomy) ResolveSubcategory(s string) (string, bool) {
	if _, ok := t.parent[s]; ok {
		return s, true
	}
	if t.labels != nil {
		if k, ok := t.labels.Key(Subcategory, s); ok {
			if _, known := t.parent[k]; known {
				return k, true
			}
		}
	}
	return "", false
}

// ResolveIncome maps an income category key or display label to its key.
func (t *Taxonomy) ResolveIncome(s string) (string, bool) {
	if t.income[s] {
		return s, true
	}
	if t.labels != nil {
		if k, ok := t.labels.Key(Income, s); ok && t.income[k] {
			return k, true
		}
	}
	return "", false
}

// CategoryOf returns the parent category of a subcategory (key or label).
func (t *Taxonomy) CategoryOf(sub string) (string, bool) {
	k, ok := t.ResolveSubcategory(sub)
	if !ok {
		return "", false
	}
	return t.parent[k], true
}

// IsRecurrent reports whether the subcategory (key or label) recurs monthly.
func (t *Taxonomy) IsRecurrent(sub string) bool {
	k, ok := t.ResolveSubcategory(sub)
	return ok && t.recurrent[k]
}

// IsIncomeCategory reports whether c (key or label) is an income category.
func (t *Taxonomy) IsIncomeCategory(c string) bool {
	_, ok := t.ResolveIncome(c)
	return ok
}
