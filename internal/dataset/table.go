package dataset

import (
	"math"
	"time"
)

// Value is one typed cell. Exactly one of Num, Time or Bool is meaningful,
// chosen by the owning column's type. Raw keeps the cleaned source text and
// is used for grouping keys, modes and raw-equality filtering.
type Value struct {
	Raw    string
	Absent bool
	Num    float64
	Time   time.Time
	Bool   bool
}

// Column is a named, typed sequence of values.
type Column struct {
	Name        string
	Type        ColumnType
	Cardinality Cardinality
	Values      []Value
}

// NonAbsent returns the number of present values.
func (c *Column) NonAbsent() int {
	n := 0
	for i := range c.Values {
		if !c.Values[i].Absent {
			n++
		}
	}
	return n
}

// numbers returns the present values of a numeric or temporal column as
// float64, temporal values as Unix seconds.
func (c *Column) numbers() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if v, ok := c.number(i); ok {
			out = append(out, v)
		}
	}
	return out
}

func (c *Column) number(i int) (float64, bool) {
	v := &c.Values[i]
	if v.Absent {
		return 0, false
	}
	switch c.Type {
	case Numeric:
		return v.Num, true
	case Temporal:
		return epochSeconds(v.Time), true
	}
	return 0, false
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromEpochSeconds(s float64) time.Time {
	sec := math.Floor(s)
	return time.Unix(int64(sec), int64((s-sec)*float64(time.Second))).UTC()
}

// Table is an immutable, column-oriented dataset. All columns have the same
// length and names are unique.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table from columns of equal length. Duplicate names or
// ragged columns are rejected as parse errors since Load never produces them.
func NewTable(columns []*Column) (*Table, error) {
	t := &Table{
		columns: columns,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, newParseError("", 1, i+1, -1, errDuplicateHeader(c.Name))
		}
		t.index[c.Name] = i
		if i == 0 {
			t.rows = len(c.Values)
		} else if len(c.Values) != t.rows {
			return nil, newParseError("", 0, i+1, -1, errColumnLength(c.Name, len(c.Values), t.rows))
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Columns returns the columns in source order.
func (t *Table) Columns() []*Column { return t.columns }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Names returns column names in source order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Row materializes row i. It panics if i is out of range.
func (t *Table) Row(i int) Row {
	if i < 0 || i >= t.rows {
		panic("dataset: row index out of range")
	}
	return t.row(t.Names(), i)
}

// Rows materializes rows [start, end). Bounds are clamped.
func (t *Table) Rows(start, end int) []Row {
	start = clamp(start, 0, t.rows)
	end = clamp(end, start, t.rows)

	out := make([]Row, 0, end-start)
	names := t.Names()
	for i := start; i < end; i++ {
		out = append(out, t.row(names, i))
	}
	return out
}

func (t *Table) row(names []string, i int) Row {
	vals := make([]any, len(t.columns))
	for j, c := range t.columns {
		vals[j] = c.cell(i)
	}
	return Row{names: names, values: vals}
}

// cell returns the JSON-ready representation of value i.
func (c *Column) cell(i int) any {
	v := &c.Values[i]
	if v.Absent {
		return nil
	}
	switch c.Type {
	case Numeric:
		return v.Num
	case Boolean:
		return v.Bool
	}
	return v.Raw
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
