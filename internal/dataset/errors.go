package dataset

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned when the declared extension is not
	// one of csv, xls or xlsx.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrParse marks structurally invalid file content. Concrete failures
	// are reported as *ParseError.
	ErrParse = errors.New("invalid file content")

	// ErrUnknownColumn is returned when a referenced column is not in the table.
	ErrUnknownColumn = errors.New("unknown column")
)

// ParseError describes where decoding stopped. Line and Column are 1-based
// and zero when unknown; Offset is the byte offset into the input when it
// can be determined, otherwise -1.
type ParseError struct {
	Format Format
	Line   int
	Column int
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Format == "" {
		b.WriteString("parse table")
	} else {
		fmt.Fprintf(&b, "parse %s", e.Format)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ", column %d", e.Column)
		}
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (byte %d)", e.Offset)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func newParseError(f Format, line, col int, offset int64, err error) *ParseError {
	return &ParseError{Format: f, Line: line, Column: col, Offset: offset, Err: err}
}

func unknownColumn(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func errDuplicateHeader(name string) error {
	return fmt.Errorf("duplicate column %q", name)
}

func errColumnLength(name string, got, want int) error {
	return fmt.Errorf("column %q has %d values, want %d", name, got, want)
}
