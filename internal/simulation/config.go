package simulation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ndrandal/simviz/internal/table"
)

// Config is the free-form configuration a simulation was run with.
type Config map[string]any

// Float returns a numeric config value.
func (c Config) Float(key string) (float64, bool) {
	return table.Number(c[key])
}

// Int returns a numeric config value truncated to int, or 0.
func (c Config) Int(key string) int {
	f, _ := c.Float(key)
	return int(f)
}

// String returns a string config value.
func (c Config) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Floats returns a numeric array config value such as buyerValues.
func (c Config) Floats(key string) ([]float64, bool) {
	var vals []any
	switch v := c[key].(type) {
	case []any:
		vals = v
	case []float64:
		return append([]float64(nil), v...), true
	case []int:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, true
	default:
		return nil, false
	}
	out, err := table.Floats(vals)
	if err != nil {
		return nil, false
	}
	return out, true
}

// Nested collects the keys that start with prefix, stripped of it and with
// the first remaining letter lowercased: titlePrepend becomes prepend.
// Keys equal to prefix are skipped.
func (c Config) Nested(prefix string) map[string]any {
	out := map[string]any{}
	for k, v := range c {
		rest, ok := strings.CutPrefix(k, prefix)
		if !ok || rest == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(rest)
		out[string(unicode.ToLower(r))+rest[size:]] = v
	}
	return out
}
