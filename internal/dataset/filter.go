package dataset

import (
	"cmp"
	"strings"
)

// DefaultFilterLimit caps Filter results when no positive limit is given.
const DefaultFilterLimit = 50

// Operator is a comparison applied by a Predicate.
type Operator string

const (
	OpGreater  Operator = "gt"
	OpLess     Operator = "lt"
	OpEqual    Operator = "eq"
	OpNotEqual Operator = "neq"
)

// ParseOperator reports whether s names a known operator.
func ParseOperator(s string) (Operator, bool) {
	switch op := Operator(strings.ToLower(strings.TrimSpace(s))); op {
	case OpGreater, OpLess, OpEqual, OpNotEqual:
		return op, true
	}
	return Operator(s), false
}

// Predicate compares one column against an operand. A nil Operand is absent
// and matches nothing.
type Predicate struct {
	Column  string
	Op      Operator
	Operand *string
}

// FilterSpec is a conjunction of predicates.
type FilterSpec []Predicate

// Filter returns the rows satisfying every predicate, in source order, up to
// limit rows. Predicates naming an unknown column or operator are ignored.
// Absent cells never satisfy a predicate.
//
// The operand is coerced to the column type: numbers for numeric columns,
// dates for temporal ones and booleans (false < true) for boolean ones.
// Categorical columns compare raw text lexicographically. When coercion
// fails, eq and neq compare raw text and gt and lt match nothing.
func Filter(t *Table, spec FilterSpec, limit int) []Row {
	if limit <= 0 {
		limit = DefaultFilterLimit
	}

	var matchers []func(int) bool
	for _, p := range spec {
		if m := compile(t, p); m != nil {
			matchers = append(matchers, m)
		}
	}

	names := t.Names()
	out := make([]Row, 0)
rows:
	for i := 0; i < t.Len() && len(out) < limit; i++ {
		for _, m := range matchers {
			if !m(i) {
				continue rows
			}
		}
		out = append(out, t.row(names, i))
	}
	return out
}

// compile turns a predicate into a row matcher, or nil when the predicate is
// a no-op.
func compile(t *Table, p Predicate) func(int) bool {
	col, ok := t.Column(p.Column)
	if !ok {
		return nil
	}
	op, ok := ParseOperator(string(p.Op))
	if !ok {
		return nil
	}

	if p.Operand == nil {
		return func(int) bool { return false }
	}
	operand := cleanCell(*p.Operand)
	if isAbsentToken(operand) {
		return func(int) bool { return false }
	}

	compare := comparator(col, operand)
	if compare == nil {
		return rawMatcher(col, op, operand)
	}

	return func(i int) bool {
		if col.Values[i].Absent {
			return false
		}
		return apply(op, compare(i))
	}
}

// comparator returns a function comparing cell i with the coerced operand,
// or nil when the operand does not fit the column type.
func comparator(col *Column, operand string) func(int) int {
	switch col.Type {
	case Numeric:
		if f, ok := parseNumber(operand); ok {
			return func(i int) int { return cmp.Compare(col.Values[i].Num, f) }
		}
	case Temporal:
		if d, ok := parseDate(operand); ok {
			return func(i int) int { return col.Values[i].Time.Compare(d) }
		}
	case Boolean:
		if b, ok := parseBool(operand); ok {
			return func(i int) int { return cmp.Compare(boolRank(col.Values[i].Bool), boolRank(b)) }
		}
	case Categorical:
		return func(i int) int { return strings.Compare(col.Values[i].Raw, operand) }
	}
	return nil
}

func rawMatcher(col *Column, op Operator, operand string) func(int) bool {
	return func(i int) bool {
		v := &col.Values[i]
		if v.Absent {
			return false
		}
		switch op {
		case OpEqual:
			return v.Raw == operand
		case OpNotEqual:
			return v.Raw != operand
		}
		return false
	}
}

func apply(op Operator, c int) bool {
	switch op {
	case OpGreater:
		return c > 0
	case OpLess:
		return c < 0
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	}
	return false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
