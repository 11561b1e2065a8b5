package dataset

import (
	"math"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SummaryReport holds descriptive statistics for every column and the
// pairwise correlation of numeric columns.
type SummaryReport struct {
	Columns     map[string]*ColumnSummary      `json:"columns"`
	ColumnOrder []string                       `json:"column_order"`
	Rows        int                            `json:"rows"`
	Correlation map[string]map[string]*float64 `json:"correlation"`
}

// ColumnSummary describes one column. Measures that are undefined for the
// column's type, or for its data, are nil and encode as null.
type ColumnSummary struct {
	Type      ColumnType `json:"dtype"`
	Rows      int        `json:"rows"`
	Count     int        `json:"count"`
	NonAbsent int        `json:"non_absent"`
	Absent    int        `json:"absent"`

	Unique      *int        `json:"unique,omitempty"`
	Top         *string     `json:"top,omitempty"`
	Freq        *int        `json:"freq,omitempty"`
	Cardinality Cardinality `json:"cardinality,omitempty"`

	Mean     *float64 `json:"mean"`
	Std      *float64 `json:"std"`
	Min      *float64 `json:"min"`
	Q1       *float64 `json:"25%"`
	Q2       *float64 `json:"50%"`
	Q3       *float64 `json:"75%"`
	Max      *float64 `json:"max"`
	Median   *float64 `json:"median"`
	Variance *float64 `json:"variance"`
	Sum      *float64 `json:"sum"`

	// Mode is a float64, bool or string depending on the column type.
	Mode any `json:"mode"`

	Temporal *TemporalSummary `json:"temporal,omitempty"`
}

// TemporalSummary repeats the location measures of a temporal column as
// timestamps.
type TemporalSummary struct {
	Mean   *time.Time `json:"mean"`
	Min    *time.Time `json:"min"`
	Q1     *time.Time `json:"25%"`
	Median *time.Time `json:"50%"`
	Q3     *time.Time `json:"75%"`
	Max    *time.Time `json:"max"`
}

// Summarize computes a SummaryReport. It never fails: measures that cannot
// be computed are left nil.
func Summarize(t *Table) *SummaryReport {
	report := &SummaryReport{
		Columns:     make(map[string]*ColumnSummary, t.Width()),
		ColumnOrder: t.Names(),
		Rows:        t.Len(),
		Correlation: correlationMatrix(t),
	}
	for _, c := range t.Columns() {
		report.Columns[c.Name] = summarizeColumn(c)
	}
	return report
}

func summarizeColumn(c *Column) *ColumnSummary {
	present := c.NonAbsent()
	s := &ColumnSummary{
		Type:        c.Type,
		Rows:        len(c.Values),
		Count:       present,
		NonAbsent:   present,
		Absent:      len(c.Values) - present,
		Cardinality: c.Cardinality,
	}

	freq := frequencies(c)
	if len(freq.order) > 0 {
		top := freq.order[0]
		s.Mode = c.cell(freq.first[top])
	}

	if c.Type != Numeric {
		unique := len(freq.order)
		s.Unique = &unique
		if unique > 0 {
			top := freq.order[0]
			raw := c.Values[freq.first[top]].Raw
			n := freq.counts[top]
			s.Top = &raw
			s.Freq = &n
		}
	}

	switch c.Type {
	case Numeric:
		x := c.numbers()
		describeNumbers(s, x)
		if len(x) > 0 {
			s.Sum = finite(floats.Sum(x))
		}
		if len(x) > 1 {
			s.Variance = finite(stat.Variance(x, nil))
		}
	case Temporal:
		describeNumbers(s, c.numbers())
		s.Temporal = temporalSummary(s)
	}
	return s
}

// describeNumbers fills the location and spread measures shared by numeric
// and temporal columns.
func describeNumbers(s *ColumnSummary, x []float64) {
	if len(x) == 0 {
		return
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	s.Mean = finite(stat.Mean(x, nil))
	s.Min = finite(floats.Min(x))
	s.Max = finite(floats.Max(x))
	s.Q1 = finite(quantile(sorted, 0.25))
	s.Q2 = finite(quantile(sorted, 0.5))
	s.Q3 = finite(quantile(sorted, 0.75))
	s.Median = finite(quantile(sorted, 0.5))
	if len(x) > 1 {
		s.Std = finite(stat.StdDev(x, nil))
	}
}

func temporalSummary(s *ColumnSummary) *TemporalSummary {
	if s.Mean == nil {
		return nil
	}
	return &TemporalSummary{
		Mean:   timePtr(s.Mean),
		Min:    timePtr(s.Min),
		Q1:     timePtr(s.Q1),
		Median: timePtr(s.Median),
		Q3:     timePtr(s.Q3),
		Max:    timePtr(s.Max),
	}
}

// quantile interpolates linearly between the order statistics around
// h = (n-1)p. sorted must be ascending and non-empty.
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// median of an unsorted sample. x must be non-empty.
func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return quantile(sorted, 0.5)
}

// valueFrequencies counts present values by type-aware key in first
// appearance order. order is sorted by descending count with ties kept in
// first-appearance order, so order[0] is the mode.
type valueFrequencies struct {
	order  []string
	counts map[string]int
	first  map[string]int
}

func frequencies(c *Column) valueFrequencies {
	f := valueFrequencies{
		counts: make(map[string]int),
		first:  make(map[string]int),
	}
	for i := range c.Values {
		if c.Values[i].Absent {
			continue
		}
		k := c.key(i)
		if _, seen := f.first[k]; !seen {
			f.first[k] = i
			f.order = append(f.order, k)
		}
		f.counts[k]++
	}
	sort.SliceStable(f.order, func(a, b int) bool {
		return f.counts[f.order[a]] > f.counts[f.order[b]]
	})
	return f
}

// key identifies equal values: numbers by value, booleans by truth, dates by
// instant and everything else by raw text.
func (c *Column) key(i int) string {
	v := &c.Values[i]
	switch c.Type {
	case Numeric:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	case Temporal:
		return v.Time.UTC().Format(time.RFC3339Nano)
	}
	return v.Raw
}

// ----------------------------------------------------------------------------
// Correlation
// ----------------------------------------------------------------------------

func correlationMatrix(t *Table) map[string]map[string]*float64 {
	var numeric []*Column
	for _, c := range t.Columns() {
		if c.Type == Numeric {
			numeric = append(numeric, c)
		}
	}

	m := make(map[string]map[string]*float64, len(numeric))
	for _, c := range numeric {
		m[c.Name] = make(map[string]*float64, len(numeric))
	}
	for i, a := range numeric {
		for _, b := range numeric[i:] {
			r := pearson(a, b)
			m[a.Name][b.Name] = r
			m[b.Name][a.Name] = r
		}
	}
	return m
}

// pearson correlates two numeric columns over the rows where both are
// present. It returns nil when fewer than two such rows exist or either side
// is constant on them.
func pearson(a, b *Column) *float64 {
	var x, y []float64
	for i := range a.Values {
		if a.Values[i].Absent || b.Values[i].Absent {
			continue
		}
		x = append(x, a.Values[i].Num)
		y = append(y, b.Values[i].Num)
	}
	if len(x) < 2 {
		return nil
	}
	if !positive(stat.Variance(x, nil)) || !positive(stat.Variance(y, nil)) {
		return nil
	}
	if a == b {
		return ptr(1.0)
	}
	return finite(stat.Correlation(x, y, nil))
}

func ptr[T any](v T) *T { return &v }

// finite returns nil for NaN and the infinities, which overflowing sums of
// values near the float64 limit produce.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func timePtr(s *float64) *time.Time {
	if s == nil {
		return nil
	}
	t := fromEpochSeconds(*s)
	return &t
}
