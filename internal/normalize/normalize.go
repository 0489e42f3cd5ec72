// Package normalize turns raw transaction descriptions into the cleaned,
// stemmed token key used for rule lookup and classifier features.
package normalize

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/portuguese"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords_pt.txt
var stopwordsPT string

// DomainStopwords is banking jargon that carries no signal about the payee.
var DomainStopwords = []string{
	"pix", "enviado", "enviada", "transferencia", "cobranca", "referente",
	"pacote", "servicos", "pagamento", "banco", "bol", "ltda", "conta",
	"compra", "cartao", "pagto", "pgto", "estabelecimento", "cp", "bra",
	"sa", "pag", "pelotas", "ifd", "marketplace", "6produto", "br",
}

// generalPatterns run after the bank patterns, in order. Matches become a
// space, so a pattern sees the text left by the ones before it.
var generalPatterns = []*regexp.Regexp{
	// dates
	regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b`),
	// punctuation
	regexp.MustCompile(`[^a-z0-9 ]+`),
	regexp.MustCompile(`[ ]{2,}`),
	// single letters
	regexp.MustCompile(`\b\w\b`),
	// isolated numbers
	regexp.MustCompile(`\b\d+\b`),
	// long numbers (transaction ids)
	regexp.MustCompile(`\s*\d{3,}\s*`),
	// currency codes
	regexp.MustCompile(`\b(usd|brl|eur)\b`),
	// timestamps such as "12mar 10h30min"
	regexp.MustCompile(`\d{2}[\w\W]+\s\d{2}h\d{2}min`),
	// card purchase prefix: "<acquirer> estabelecimento <payee>"
	regexp.MustCompile(`^.*?estabelecimento\s`),
	regexp.MustCompile(`\d+gb mensal`),
	regexp.MustCompile(`redes sociais`),
}

var spaces = regexp.MustCompile(`\s{2,}`)

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopwords map[string]struct{}
}

// New returns a Normalizer using the Portuguese stopword list, the domain
// list and any extra words.
func New(extra ...string) *Normalizer {
	n := &Normalizer{stopwords: make(map[string]struct{})}
	for _, w := range strings.Fields(stopwordsPT) {
		n.stopwords[StripAccents(w)] = struct{}{}
	}
	for _, w := range DomainStopwords {
		n.stopwords[w] = struct{}{}
	}
	for _, w := range extra {
		n.stopwords[StripAccents(strings.ToLower(w))] = struct{}{}
	}
	return n
}

// IsStopword reports whether w (already lowercased) is dropped.
func (n *Normalizer) IsStopword(w string) bool {
	_, ok := n.stopwords[w]
	return ok
}

// Normalize returns the cleaned description of text. bank holds the
// profile's removal patterns, applied before the general ones.
func (n *Normalizer) Normalize(text string, bank []*regexp.Regexp) string {
	s := StripAccents(strings.TrimSpace(strings.ToLower(text)))

	for _, p := range bank {
		s = p.ReplaceAllString(s, "")
	}
	for _, p := range generalPatterns {
		s = p.ReplaceAllString(s, " ")
	}
	s = strings.TrimSpace(spaces.ReplaceAllString(s, " "))

	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(s) {
		if n.IsStopword(w) {
			continue
		}
		st := Stem(w)
		if st == "" || seen[st] {
			continue
		}
		seen[st] = true
		out = append(out, st)
	}
	return strings.Join(out, " ")
}

// CompilePatterns compiles bank removal patterns case-insensitively.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// StripAccents removes combining marks: "Histórico" -> "Historico".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Stem returns the Portuguese Snowball stem of a lowercase word.
func Stem(word string) string {
	env := snowballstem.NewEnv(word)
	portuguese.Stem(env)
	return env.Current()
}
