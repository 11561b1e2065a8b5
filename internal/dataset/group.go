package dataset

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AbsentGroupKey is the key under which rows with an absent group value are
// reported. It cannot collide with a present value because "null" always
// loads as absent.
const AbsentGroupKey = "null"

// GroupMeasures are the aggregates of one numeric column within one group.
// All pointer fields are nil when the group has no present values.
type GroupMeasures struct {
	Mean   *float64 `json:"mean"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Median *float64 `json:"median"`
	Sum    *float64 `json:"sum"`
	Count  int      `json:"count"`
}

// Group is one partition of the table.
type Group struct {
	Key      string
	Absent   bool
	Size     int
	Measures map[string]GroupMeasures
}

// GroupAggregationResult lists groups in order of first appearance of their
// key. It encodes as {key: {column: measures}}, keys in group order and
// columns in table order.
type GroupAggregationResult struct {
	KeyColumn    string
	ValueColumns []string
	Groups       []Group
}

// Sizes returns the row count of every group by key.
func (r *GroupAggregationResult) Sizes() map[string]int {
	out := make(map[string]int, len(r.Groups))
	for _, g := range r.Groups {
		out[g.Key] = g.Size
	}
	return out
}

// AggregateByGroup partitions t by the raw value of key and aggregates every
// numeric column other than key within each partition.
func AggregateByGroup(t *Table, key string) (*GroupAggregationResult, error) {
	keyCol, ok := t.Column(key)
	if !ok {
		return nil, unknownColumn(key)
	}

	var values []*Column
	for _, c := range t.Columns() {
		if c.Type == Numeric && c.Name != key {
			values = append(values, c)
		}
	}

	// Partition row indices, keyed by raw text in first-appearance order.
	index := make(map[string]int)
	var groups []Group
	var members [][]int
	for i := range keyCol.Values {
		v := &keyCol.Values[i]
		k := v.Raw
		if v.Absent {
			k = AbsentGroupKey
		}
		g, seen := index[k]
		if !seen {
			g = len(groups)
			index[k] = g
			groups = append(groups, Group{Key: k, Absent: v.Absent})
			members = append(members, nil)
		}
		members[g] = append(members[g], i)
	}

	res := &GroupAggregationResult{
		KeyColumn:    key,
		ValueColumns: make([]string, len(values)),
		Groups:       groups,
	}
	for j, c := range values {
		res.ValueColumns[j] = c.Name
	}

	for g := range groups {
		rows := members[g]
		groups[g].Size = len(rows)
		groups[g].Measures = make(map[string]GroupMeasures, len(values))
		for _, c := range values {
			groups[g].Measures[c.Name] = aggregate(c, rows)
		}
	}
	return res, nil
}

func aggregate(c *Column, rows []int) GroupMeasures {
	x := make([]float64, 0, len(rows))
	for _, i := range rows {
		if !c.Values[i].Absent {
			x = append(x, c.Values[i].Num)
		}
	}
	if len(x) == 0 {
		return GroupMeasures{}
	}
	return GroupMeasures{
		Mean:   finite(stat.Mean(x, nil)),
		Min:    finite(floats.Min(x)),
		Max:    finite(floats.Max(x)),
		Median: finite(median(x)),
		Sum:    finite(floats.Sum(x)),
		Count:  len(x),
	}
}

// MarshalJSON writes groups and columns in their stable order.
func (r *GroupAggregationResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range r.Groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, g.Key); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, name := range r.ValueColumns {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONKey(&buf, name); err != nil {
				return nil, err
			}
			m, err := json.Marshal(g.Measures[name])
			if err != nil {
				return nil, err
			}
			buf.Write(m)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}

var _ msgpack.CustomEncoder = (*GroupAggregationResult)(nil)

// EncodeMsgpack mirrors MarshalJSON.
func (r *GroupAggregationResult) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r.Groups)); err != nil {
		return err
	}
	for _, g := range r.Groups {
		if err := enc.EncodeString(g.Key); err != nil {
			return err
		}
		if err := enc.EncodeMapLen(len(r.ValueColumns)); err != nil {
			return err
		}
		for _, name := range r.ValueColumns {
			if err := enc.EncodeString(name); err != nil {
				return err
			}
			if err := enc.Encode(g.Measures[name]); err != nil {
				return err
			}
		}
	}
	return nil
}
