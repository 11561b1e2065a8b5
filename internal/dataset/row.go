package dataset

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Row is an ordered mapping from column name to cell value. Numeric cells
// are float64, boolean cells bool, other cells their source text and absent
// cells nil. Rows encode as objects whose keys follow column order.
type Row struct {
	names  []string
	values []any
}

// Len returns the number of cells.
func (r Row) Len() int { return len(r.names) }

// Names returns the column names in order.
func (r Row) Names() []string { return r.names }

// Values returns the cell values in column order.
func (r Row) Values() []any { return r.values }

// Get returns the cell for a column name.
func (r Row) Get(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// MarshalJSON writes the row as a JSON object in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONKey(&buf, name); err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var _ msgpack.CustomEncoder = Row{}

// EncodeMsgpack writes the row as a MessagePack map in column order.
func (r Row) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r.names)); err != nil {
		return err
	}
	for i, name := range r.names {
		if err := enc.EncodeString(name); err != nil {
			return err
		}
		if err := enc.Encode(r.values[i]); err != nil {
			return err
		}
	}
	return nil
}
