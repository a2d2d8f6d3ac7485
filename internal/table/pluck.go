package table

import "fmt"

// Columns maps a column name to its values across the data rows.
type Columns map[string][]any

// Pluck projects the named columns of d into parallel slices, skipping the
// header. With no names every header column is projected. Names absent
// from the header are absent from the result; a row shorter than the
// header contributes nil for the missing cells.
func Pluck(d Data, names ...string) Columns {
	out := Columns{}
	if len(d) == 0 {
		return out
	}
	header := d.Header()
	if len(names) == 0 {
		names = header
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		col, ok := pos[name]
		if !ok {
			continue
		}
		if _, done := out[name]; done {
			continue
		}
		vals := make([]any, 0, len(d)-1)
		for _, row := range d[1:] {
			if col < len(row) {
				vals = append(vals, row[col])
			} else {
				vals = append(vals, nil)
			}
		}
		out[name] = vals
	}
	return out
}

// Column returns one plucked column or an error naming it.
func (c Columns) Column(name string) ([]any, error) {
	v, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("column %q not found", name)
	}
	return v, nil
}

// FloatColumn returns one plucked column as finite float64s.
func (c Columns) FloatColumn(name string) ([]float64, error) {
	v, err := c.Column(name)
	if err != nil {
		return nil, err
	}
	f, err := Floats(v)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", name, err)
	}
	return f, nil
}
