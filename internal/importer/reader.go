package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/llazzari/personal-finance/internal/errs"
	"github.com/llazzari/personal-finance/internal/frame"
)

// ReaderOptions describes a bank's delimited text layout.
type ReaderOptions struct {
	Encoding       string // utf-8 (default), latin-1, windows-1252
	Delimiter      rune   // ',' when zero
	SkipRows       int    // lines dropped before the header
	SkipFooter     int    // lines dropped at the end
	DateLayout     string // time layout of DateColumns
	Decimal        string // decimal separator, "." when empty
	Thousands      string // thousands separator, none when empty
	UseColumns     []string
	DateColumns    []string
	NumericColumns []string
	SkipBadLines   bool // drop rows whose width differs from the header
}

// Decode converts raw bytes in the given encoding to UTF-8 text. Invalid
// sequences become U+FFFD and a UTF-8 byte order mark is dropped.
func Decode(raw []byte, encoding string) (string, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "_", "-")) {
	case "", "utf-8", "utf8":
		s := strings.TrimPrefix(string(raw), "\ufeff")
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "\uFFFD")
		}
		return s, nil
	case "latin-1", "latin1", "iso-8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decoding latin-1: %w", err)
		}
		return string(out), nil
	case "windows-1252", "cp1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decoding windows-1252: %w", err)
		}
		return string(out), nil
	}
	return "", fmt.Errorf("unsupported encoding %q", encoding)
}

// Read parses delimited text into a frame holding the used columns in
// UseColumns order, or every column when UseColumns is empty.
func Read(text string, opts ReaderOptions) (*frame.Frame, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if opts.SkipRows >= len(lines) {
		return nil, &errs.ParseError{Err: errors.New("no header row")}
	}
	lines = lines[opts.SkipRows:]
	if opts.SkipFooter > 0 {
		if opts.SkipFooter >= len(lines) {
			lines = lines[:1]
		} else {
			lines = lines[:len(lines)-opts.SkipFooter]
		}
	}

	cr := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &errs.ParseError{Err: errors.New("no header row")}
		}
		return nil, &errs.ParseError{Row: opts.SkipRows + 1, Err: err}
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	use := opts.UseColumns
	if len(use) == 0 {
		use = header
	}
	idx := make([]int, len(use))
	for i, c := range use {
		j, ok := pos[c]
		if !ok {
			return nil, &errs.ParseError{Column: c, Err: errors.New("column not found")}
		}
		idx[i] = j
	}

	dates := toSet(opts.DateColumns)
	numbers := toSet(opts.NumericColumns)
	out := frame.New(use...)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var ce *csv.ParseError
			if errors.As(err, &ce) {
				return nil, &errs.ParseError{Row: ce.Line + opts.SkipRows, Err: ce.Err}
			}
			return nil, &errs.ParseError{Err: err}
		}
		line, _ := cr.FieldPos(0)
		row := line + opts.SkipRows
		if len(rec) != len(header) {
			if opts.SkipBadLines {
				continue
			}
			return nil, &errs.ParseError{Row: row, Err: fmt.Errorf("expected %d fields, got %d", len(header), len(rec))}
		}

		cells := make([]any, len(use))
		for i, c := range use {
			raw := rec[idx[i]]
			switch {
			case dates[c]:
				cells[i], err = parseDate(raw, opts.DateLayout)
			case numbers[c]:
				cells[i], err = parseNumber(raw, opts.Decimal, opts.Thousands)
			default:
				cells[i] = raw
			}
			if err != nil {
				return nil, &errs.ParseError{Row: row, Column: c, Err: err}
			}
		}
		out.Append(cells...)
	}
	return out, nil
}

func toSet(cols []string) map[string]bool {
	m := make(map[string]bool, len(cols))
	for _, c := range cols {
		m[c] = true
	}
	return m
}

// parseDate returns nil for a blank cell.
func parseDate(raw, layout string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if layout == "" {
		layout = "02/01/2006"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// parseNumber returns nil for a blank cell.
func parseNumber(raw, dec, thousands string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	if thousands != "" {
		s = strings.ReplaceAll(s, thousands, "")
	}
	if dec != "" && dec != "." {
		s = strings.ReplaceAll(s, dec, ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", raw, err)
	}
	return d, nil
}

func withBank(err error, bank string) error {
	var pe *errs.ParseError
	if errors.As(err, &pe) && pe.Bank == "" {
		pe.Bank = bank
	}
	return err
}
