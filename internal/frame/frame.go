// Package frame provides the small in-memory table the cleaning pipeline
// passes between stages. Cells are nil (null), string, time.Time,
// decimal.Decimal or int. Operations return new frames and never mutate
// their receiver.
package frame

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frame is an ordered set of named columns over row-major cells.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// New creates an empty frame with the given columns.
func New(cols ...string) *Frame {
	f := &Frame{cols: append([]string(nil), cols...)}
	f.reindex()
	return f
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for i, c := range f.cols {
		f.index[c] = i
	}
}

// Columns returns a copy of the column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.cols...)
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Has reports whether the frame has column col.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Append adds a row. Panics if the row width does not match the columns.
func (f *Frame) Append(cells ...any) {
	if len(cells) != len(f.cols) {
		panic(fmt.Sprintf("frame: row has %d cells, want %d", len(cells), len(f.cols)))
	}
	f.rows = append(f.rows, append([]any(nil), cells...))
}

// Get returns the cell at row i of column col, or nil if the column is absent.
func (f *Frame) Get(i int, col string) any {
	j, ok := f.index[col]
	if !ok {
		return nil
	}
	return f.rows[i][j]
}

// String returns the cell as a string. ok is false for null or non-string cells.
func (f *Frame) String(i int, col string) (string, bool) {
	s, ok := f.Get(i, col).(string)
	return s, ok
}

// Time returns the cell as a time. ok is false for null or non-time cells.
func (f *Frame) Time(i int, col string) (time.Time, bool) {
	t, ok := f.Get(i, col).(time.Time)
	return t, ok
}

// Decimal returns the cell as a decimal. ok is false for null or non-decimal cells.
func (f *Frame) Decimal(i int, col string) (decimal.Decimal, bool) {
	d, ok := f.Get(i, col).(decimal.Decimal)
	return d, ok
}

// Int returns the cell as an int. ok is false for null or non-int cells.
func (f *Frame) Int(i int, col string) (int, bool) {
	n, ok := f.Get(i, col).(int)
	return n, ok
}

// Clone returns a copy sharing no row storage with f.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]any, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = append([]any(nil), r...)
	}
	return out
}

// Rename returns a frame whose columns are renamed through m. Names not in
// m are kept.
func (f *Frame) Rename(m map[string]string) *Frame {
	out := f.Clone()
	for i, c := range out.cols {
		if to, ok := m[c]; ok && to != "" {
			out.cols[i] = to
		}
	}
	out.reindex()
	return out
}

// WithColumn returns a frame where col holds fn(i) for every row. An
// existing column is replaced in place; a new one is appended.
func (f *Frame) WithColumn(col string, fn func(i int) any) *Frame {
	out := f.Clone()
	j, ok := out.index[col]
	if !ok {
		out.cols = append(out.cols, col)
		out.reindex()
		j = len(out.cols) - 1
		for i := range out.rows {
			out.rows[i] = append(out.rows[i], nil)
		}
	}
	for i := range out.rows {
		out.rows[i][j] = fn(i)
	}
	return out
}

// Drop returns a frame without the named columns.
func (f *Frame) Drop(cols ...string) *Frame {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	var keep []int
	var names []string
	for j, c := range f.cols {
		if !drop[c] {
			keep = append(keep, j)
			names = append(names, c)
		}
	}
	out := New(names...)
	for _, r := range f.rows {
		row := make([]any, len(keep))
		for k, j := range keep {
			row[k] = r[j]
		}
		out.rows = append(out.rows, row)
	}
	return out
}

// Filter returns the rows for which keep returns true, in order.
func (f *Frame) Filter(keep func(i int) bool) *Frame {
	out := New(f.cols...)
	for i, r := range f.rows {
		if keep(i) {
			out.rows = append(out.rows, append([]any(nil), r...))
		}
	}
	return out
}

// Slice returns rows [lo, hi). Bounds are clamped to the frame.
func (f *Frame) Slice(lo, hi int) *Frame {
	if lo < 0 {
		lo = 0
	}
	if hi > len(f.rows) {
		hi = len(f.rows)
	}
	if lo > hi {
		lo = hi
	}
	return f.Filter(func(i int) bool { return i >= lo && i < hi })
}

// Concat stacks frames that share the same column set. Column order
// follows the first frame.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New(), nil
	}
	out := New(frames[0].cols...)
	for n, f := range frames {
		if len(f.cols) != len(out.cols) {
			return nil, fmt.Errorf("concat frame %d: has %d columns, want %d", n, len(f.cols), len(out.cols))
		}
		for _, r := range f.rows {
			row := make([]any, len(out.cols))
			for j, c := range out.cols {
				k, ok := f.index[c]
				if !ok {
					return nil, fmt.Errorf("concat frame %d: missing column %q", n, c)
				}
				row[j] = r[k]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}
