package dataset

import "time"

// inferColumn cleans raw cells, marks absent ones and assigns the column
// type. Candidates are tried from most to least specific:
// numeric, boolean, temporal, categorical. A column with no present cells
// is numeric so every statistic on it is simply null.
func inferColumn(name string, raw []string, opts Options) *Column {
	col := &Column{Name: name, Values: make([]Value, len(raw))}

	present := 0
	for i, s := range raw {
		s = cleanCell(s)
		col.Values[i].Raw = s
		if isAbsentToken(s) {
			col.Values[i].Absent = true
			continue
		}
		present++
	}

	switch {
	case present == 0 || tryNumeric(col.Values):
		col.Type = Numeric
	case tryBoolean(col.Values):
		col.Type = Boolean
	case tryTemporal(col.Values):
		col.Type = Temporal
	default:
		col.Type = Categorical
		col.Cardinality = cardinalityOf(col.Values, present, opts.categoricalRatio())
	}
	return col
}

func tryNumeric(vals []Value) bool {
	nums := make([]float64, len(vals))
	for i := range vals {
		if vals[i].Absent {
			continue
		}
		f, ok := parseNumber(vals[i].Raw)
		if !ok {
			return false
		}
		nums[i] = f
	}
	for i := range vals {
		vals[i].Num = nums[i]
	}
	return true
}

func tryBoolean(vals []Value) bool {
	bools := make([]bool, len(vals))
	for i := range vals {
		if vals[i].Absent {
			continue
		}
		b, ok := parseBool(vals[i].Raw)
		if !ok {
			return false
		}
		bools[i] = b
	}
	for i := range vals {
		vals[i].Bool = bools[i]
	}
	return true
}

func tryTemporal(vals []Value) bool {
	times := make([]time.Time, len(vals))
	for i := range vals {
		if vals[i].Absent {
			continue
		}
		t, ok := parseDate(vals[i].Raw)
		if !ok {
			return false
		}
		times[i] = t
	}
	for i := range vals {
		vals[i].Time = times[i]
	}
	return true
}

func cardinalityOf(vals []Value, present int, ratio float64) Cardinality {
	distinct := make(map[string]struct{})
	for i := range vals {
		if !vals[i].Absent {
			distinct[vals[i].Raw] = struct{}{}
		}
	}
	if float64(len(distinct)) <= ratio*float64(present) {
		return CardinalityLow
	}
	return CardinalityHigh
}
