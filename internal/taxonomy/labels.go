package taxonomy

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/llazzari/personal-finance/internal/model"
)

//go:embed labels.*.yaml
var labelFiles embed.FS

// Namespace selects which label table a key belongs to.
type Namespace string

const (
	Category    Namespace = "category"
	Subcategory Namespace = "subcategory"
	Income      Namespace = "income"
)

// Labels maps internal keys to display strings for one locale.
type Labels struct {
	Locale      string            `yaml:"-"`
	Category    map[string]string `yaml:"category"`
	Subcategory map[string]string `yaml:"subcategory"`
	Income      map[string]string `yaml:"income"`
	General     map[string]string `yaml:"general"`
	Months      []string          `yaml:"months"`

	inverse map[Namespace]map[string]string
}

// ParseLabels decodes a labels file.
func ParseLabels(locale string, data []byte) (*Labels, error) {
	var l Labels
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing %s labels: %w", locale, err)
	}
	if len(l.Months) != 12 {
		return nil, fmt.Errorf("%s labels: expected 12 month names, got %d", locale, len(l.Months))
	}
	l.Locale = locale
	l.inverse = map[Namespace]map[string]string{
		Category:    invert(l.Category),
		Subcategory: invert(l.Subcategory),
		Income:      invert(l.Income),
	}
	return &l, nil
}

// LoadLabels reads a labels file from disk.
func LoadLabels(locale, path string) (*Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels: %w", err)
	}
	return ParseLabels(locale, data)
}

// DefaultLabels returns the built-in labels for locale.
func DefaultLabels(locale string) (*Labels, error) {
	data, err := labelFiles.ReadFile("labels." + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown locale %q", locale)
	}
	return ParseLabels(locale, data)
}

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func (l *Labels) table(ns Namespace) map[string]string {
	switch ns {
	case Category:
		return l.Category
	case Subcategory:
		return l.Subcategory
	case Income:
		return l.Income
	}
	return nil
}

// Display returns the label for key, or key itself when unlabeled.
func (l *Labels) Display(ns Namespace, key string) string {
	if v, ok := l.table(ns)[key]; ok {
		return v
	}
	return key
}

// Key returns the internal key for a display label.
func (l *Labels) Key(ns Namespace, label string) (string, bool) {
	k, ok := l.inverse[ns][label]
	return k, ok
}

// MonthShort returns the short month name for m in 1..12.
func (l *Labels) MonthShort(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return l.Months[m-1]
}

// Recurrence returns the display string for r.
func (l *Labels) Recurrence(r model.Recurrence) string {
	if r == model.RecurrentYes {
		return l.general("recurrent_yes", string(r))
	}
	return l.general("recurrent_no", string(model.RecurrentNo))
}

// Kind returns the display string for a table kind.
func (l *Labels) Kind(k model.Kind) string {
	return l.general(string(k), string(k))
}

func (l *Labels) general(key, fallback string) string {
	if v, ok := l.General[key]; ok {
		return v
	}
	return fallback
}
