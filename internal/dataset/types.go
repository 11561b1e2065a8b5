package dataset

import (
	"fmt"
	"strings"
)

// ColumnType is the inferred kind of a column. It decides which statistics
// are defined and how filter operands are coerced.
type ColumnType int

const (
	Numeric ColumnType = iota
	Temporal
	Boolean
	Categorical
)

var columnTypeNames = [...]string{
	Numeric:     "numeric",
	Temporal:    "temporal",
	Boolean:     "boolean",
	Categorical: "categorical",
}

func (t ColumnType) String() string {
	if t < 0 || int(t) >= len(columnTypeNames) {
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
	return columnTypeNames[t]
}

// MarshalText renders the type by name in JSON and MessagePack payloads.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Cardinality is a hint attached to categorical columns. It is empty for
// every other column type.
type Cardinality string

const (
	CardinalityLow  Cardinality = "low"
	CardinalityHigh Cardinality = "high"
)

// Format is a supported input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a declared extension. Matching is case-insensitive
// and tolerates a leading dot.
func ParseFormat(ext string) (Format, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	switch Format(ext) {
	case FormatCSV, FormatXLS, FormatXLSX:
		return Format(ext), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// FormatFromFilename returns the format implied by the text after the last
// dot of name. A name without a dot is treated as its own extension.
func FormatFromFilename(name string) (Format, error) {
	ext := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}
	return ParseFormat(ext)
}

// DefaultCategoricalRatio is the distinct/non-absent ratio at or below which
// a categorical column is considered low cardinality.
const DefaultCategoricalRatio = 0.5

// Options tunes loading and inference.
type Options struct {
	// Delimiter forces the CSV field separator. Zero sniffs it from the
	// first line.
	Delimiter rune

	// CategoricalRatio is the cardinality threshold for categorical columns.
	// Zero or negative selects DefaultCategoricalRatio.
	CategoricalRatio float64
}

func (o Options) categoricalRatio() float64 {
	if o.CategoricalRatio <= 0 {
		return DefaultCategoricalRatio
	}
	return o.CategoricalRatio
}
