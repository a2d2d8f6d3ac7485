package plotly

import "github.com/ndrandal/simviz/internal/table"

// Merge deep-merges items left to right into a new map. Nested maps are
// merged key by key; any other value, slices included, is replaced by the
// later item. Nil items are skipped. The inputs are never modified.
func Merge(items ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, item := range items {
		mergeInto(out, item)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sm, ok := asMap(v)
		if !ok {
			dst[k] = cloneValue(v)
			continue
		}
		if dm, ok := asMap(dst[k]); ok {
			merged := Clone(dm)
			mergeInto(merged, sm)
			dst[k] = merged
			continue
		}
		dst[k] = Clone(sm)
	}
}

// Clone deep-copies a nested map of maps and slices.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return Clone(x)
	case Layout:
		return Clone(x)
	case Config:
		return Clone(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case []float64:
		return append([]float64(nil), x...)
	case []string:
		return append([]string(nil), x...)
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Layout:
		return x, true
	case Config:
		return x, true
	}
	return nil, false
}

// MergeLayouts is Merge for layouts.
func MergeLayouts(items ...map[string]any) Layout {
	return Layout(Merge(items...))
}

// Range reads a two-element numeric range such as layout.xaxis.range.
func (l Layout) Range(axis string) (lo, hi float64, ok bool) {
	ax, ok := asMap(l[axis])
	if !ok {
		return 0, 0, false
	}
	var vals []any
	switch r := ax["range"].(type) {
	case []any:
		vals = r
	case []float64:
		vals = Floats(r)
	default:
		return 0, 0, false
	}
	if len(vals) != 2 {
		return 0, 0, false
	}
	lo, ok1 := table.Number(vals[0])
	hi, ok2 := table.Number(vals[1])
	return lo, hi, ok1 && ok2
}

// SetRange sets layout.<axis>.range, creating the axis map if needed.
func (l Layout) SetRange(axis string, lo, hi float64) {
	ax, ok := asMap(l[axis])
	if !ok {
		ax = map[string]any{}
	}
	ax["range"] = []any{lo, hi}
	l[axis] = ax
}

// TitleText returns layout.title.text, accepting a plain string title.
func (l Layout) TitleText() string {
	switch t := l["title"].(type) {
	case string:
		return t
	default:
		if m, ok := asMap(t); ok {
			if s, ok := m["text"].(string); ok {
				return s
			}
		}
	}
	return ""
}

// SetTitleText sets layout.title.text, keeping other title properties.
func (l Layout) SetTitleText(text string) {
	title, ok := asMap(l["title"])
	if !ok {
		title = map[string]any{}
	}
	title["text"] = text
	l["title"] = title
}
