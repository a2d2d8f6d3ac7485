// Package table holds the header+rows tables that simulation logs are made
// of, and the column projection used by every chart.
package table

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNotNumeric is returned when a column that must be plotted as numbers
// contains gaps, strings or non-finite values.
var ErrNotNumeric = errors.New("requires contiguous, finite, numeric data array --- found gaps or bad data")

// Row is one table row. Values are float64 or string.
type Row []any

// Data is a table whose first row is the header.
type Data []Row

// Header returns the column names, or nil for an empty table.
func (d Data) Header() []string {
	if len(d) == 0 {
		return nil
	}
	out := make([]string, len(d[0]))
	for i, v := range d[0] {
		out[i] = fmt.Sprint(v)
	}
	return out
}

// Len returns the number of data rows, excluding the header.
func (d Data) Len() int {
	if len(d) == 0 {
		return 0
	}
	return len(d) - 1
}

// Index returns the position of column in the header, or -1.
func (d Data) Index(column string) int {
	for i, name := range d.Header() {
		if name == column {
			return i
		}
	}
	return -1
}

// Source is anything that exposes a table, such as a simulation log.
type Source interface {
	Data() Data
}

// Selector is implemented by sources that can narrow themselves to a
// numeric range of one column.
type Selector interface {
	SelectAscending(column string, from, to float64) Data
}

// Log is an append-only simulation log.
type Log struct {
	data Data
}

// NewLog creates an empty log with the given header.
func NewLog(header ...string) *Log {
	h := make(Row, len(header))
	for i, name := range header {
		h[i] = name
	}
	return &Log{data: Data{h}}
}

// FromData wraps an existing header+rows table. Numeric values are
// normalized to float64.
func FromData(d Data) *Log {
	out := make(Data, len(d))
	for i, row := range d {
		r := make(Row, len(row))
		for j, v := range row {
			if i > 0 {
				if n, ok := Number(v); ok {
					v = n
				}
			}
			r[j] = v
		}
		out[i] = r
	}
	return &Log{data: out}
}

// Append adds one row.
func (l *Log) Append(values ...any) {
	r := make(Row, len(values))
	for i, v := range values {
		if n, ok := Number(v); ok {
			v = n
		}
		r[i] = v
	}
	l.data = append(l.data, r)
}

// Data returns the header and rows. The slice is shared; callers must
// not modify it.
func (l *Log) Data() Data {
	return l.data
}

// Header returns the column names.
func (l *Log) Header() []string {
	return l.data.Header()
}

// SelectAscending returns the header plus the rows whose column value lies
// in [from, to], ordered ascending by that column. Rows with a
// non-numeric value in column are dropped. An unknown column yields the
// header only.
func (l *Log) SelectAscending(column string, from, to float64) Data {
	if len(l.data) == 0 {
		return Data{}
	}
	out := Data{l.data[0]}
	col := l.data.Index(column)
	if col < 0 {
		return out
	}
	var picked []Row
	for _, row := range l.data[1:] {
		if col >= len(row) {
			continue
		}
		v, ok := Number(row[col])
		if !ok || v < from || v > to {
			continue
		}
		picked = append(picked, row)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		a, _ := Number(picked[i][col])
		b, _ := Number(picked[j][col])
		return a < b
	})
	return append(out, picked...)
}

// MarshalJSON encodes the log as an array of rows.
func (l *Log) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.data)
}

// UnmarshalJSON decodes an array of rows.
func (l *Log) UnmarshalJSON(b []byte) error {
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*l = *FromData(d)
	return nil
}

// UnmarshalYAML decodes a sequence of rows.
func (l *Log) UnmarshalYAML(unmarshal func(any) error) error {
	var d Data
	if err := unmarshal(&d); err != nil {
		return err
	}
	*l = *FromData(d)
	return nil
}

// Number converts the numeric kinds produced by JSON, YAML and BSON
// decoders to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Floats converts a plucked column to float64s. It fails unless every
// element is a finite number.
func Floats(values []any) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		n, ok := Number(v)
		if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, ErrNotNumeric
		}
		out[i] = n
	}
	return out, nil
}

// CheckNumeric returns ErrNotNumeric when values starts with a number but
// is not entirely finite numbers. Columns of strings pass unchecked.
func CheckNumeric(values []any) error {
	if len(values) == 0 {
		return nil
	}
	if _, ok := Number(values[0]); !ok {
		return nil
	}
	_, err := Floats(values)
	return err
}
