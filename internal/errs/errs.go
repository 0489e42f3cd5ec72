// Package errs defines the failure taxonomy of the ingestion pipeline.
package errs

import (
	"errors"
	"fmt"
)

// ParseError reports a source file that could not be decoded or read.
type ParseError struct {
	Bank   string
	Row    int    // 1-based line in the source, 0 when not row specific
	Column string // empty when not column specific
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse error"
	if e.Bank != "" {
		msg += " [" + e.Bank + "]"
	}
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a cleaning stage that could not find a column it needs.
type SchemaError struct {
	Stage  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: stage %s: missing column %q", e.Stage, e.Column)
}

// PersistenceError reports a failed write or delete of a saved table.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// No-op conditions. Callers report them as "nothing updated", not as failures.
var (
	ErrEmptyTable          = errors.New("nothing to categorize: table is empty")
	ErrNothingToCategorize = errors.New("nothing to categorize: every row already has a subcategory")
)

// IsNoOp reports whether err is one of the no-op conditions.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrEmptyTable) || errors.Is(err, ErrNothingToCategorize)
}

// IsUploadRejection reports whether err should be shown to the user as a
// rejected upload (parse or schema failure).
func IsUploadRejection(err error) bool {
	var pe *ParseError
	var se *SchemaError
	return errors.As(err, &pe) || errors.As(err, &se)
}
