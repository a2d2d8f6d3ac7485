// Package plotly models the parts of the Plotly chart schema that simviz
// emits: traces, layouts and configs.
package plotly

import "encoding/json"

// Layout is a free-form Plotly layout.
type Layout map[string]any

// Config is a free-form Plotly config.
type Config map[string]any

// Marker styles the points of a trace.
type Marker struct {
	Size    float64 `json:"size,omitempty"`
	Symbol  string  `json:"symbol,omitempty"`
	Color   any     `json:"color,omitempty"`
	Text    []any   `json:"text,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
}

// Line styles the outline of a trace.
type Line struct {
	Color string `json:"color,omitempty"`
}

// MeanLine toggles the mean line of a violin.
type MeanLine struct {
	Visible bool `json:"visible"`
}

// Bins fixes histogram binning.
type Bins struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Size  float64 `json:"size"`
}

// ErrorBars draws per-point error bars. A nil entry in Array leaves a gap.
type ErrorBars struct {
	Type    string `json:"type"`
	Array   []any  `json:"array"`
	Visible bool   `json:"visible"`
}

// Trace is one plotted series. X and Y are emitted whenever they are
// non-nil, so a degraded series still serializes as "x":[] and "y":[].
// Extra holds free-form overrides applied on top of the typed fields.
type Trace struct {
	Name         string     `json:"name,omitempty"`
	Type         string     `json:"type,omitempty"`
	Mode         string     `json:"mode,omitempty"`
	X            []any      `json:"x"`
	Y            []any      `json:"y"`
	Marker       *Marker    `json:"marker,omitempty"`
	Line         *Line      `json:"line,omitempty"`
	HoverText    []any      `json:"hovertext,omitempty"`
	HoverInfo    string     `json:"hoverinfo,omitempty"`
	Opacity      float64    `json:"opacity,omitempty"`
	XBins        *Bins      `json:"xbins,omitempty"`
	ErrorY       *ErrorBars `json:"error_y,omitempty"`
	BoxMean      string     `json:"boxmean,omitempty"`
	ShowLegend   *bool      `json:"showlegend,omitempty"`
	MeanLine     *MeanLine  `json:"meanline,omitempty"`
	SpanMode     string     `json:"spanmode,omitempty"`
	XAxis        string     `json:"xaxis,omitempty"`
	YAxis        string     `json:"yaxis,omitempty"`
	NContours    int        `json:"ncontours,omitempty"`
	ColorScale   string     `json:"colorscale,omitempty"`
	ReverseScale bool       `json:"reversescale,omitempty"`
	ShowScale    *bool      `json:"showscale,omitempty"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens the typed fields and Extra into one object.
func (t Trace) MarshalJSON() ([]byte, error) {
	type plain Trace
	b, err := json.Marshal(plain(t))
	if err != nil {
		return nil, err
	}
	if t.X != nil && t.Y != nil && len(t.Extra) == 0 {
		return b, nil
	}
	m := map[string]any{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	if t.X == nil {
		delete(m, "x")
	}
	if t.Y == nil {
		delete(m, "y")
	}
	for k, v := range t.Extra {
		m[k] = v
	}
	return json.Marshal(m)
}

// Empty reports whether the trace carries no points.
func (t Trace) Empty() bool {
	return len(t.X) == 0 && len(t.Y) == 0
}

// Bool returns a pointer to b, for the optional boolean fields.
func Bool(b bool) *bool {
	return &b
}

// Floats widens a numeric slice for use as trace coordinates.
func Floats(f []float64) []any {
	out := make([]any, len(f))
	for i, v := range f {
		out[i] = v
	}
	return out
}

// Strings widens a string slice for use as trace coordinates.
func Strings(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
