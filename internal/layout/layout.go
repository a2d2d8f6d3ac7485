// Package layout composes Plotly layouts from a default layout, a title
// annotated with the simulation case, and axis titles and ranges inferred
// from the plotted variables.
package layout

import (
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
)

// Axis describes the independent variable of a study: the config key that
// varies across its simulations and, optionally, the value per simulation.
type Axis struct {
	Key    string `json:"key" yaml:"key"`
	Values []any  `json:"values,omitempty" yaml:"values,omitempty"`
}

// Options are the inputs of Compose.
type Options struct {
	Title  string
	Xs     []string
	Ys     []string
	XRange []float64
	YRange []float64
	Sim    *simulation.Simulation
	Sims   []*simulation.Simulation
	Axis   *Axis
}

var priceKeywords = []string{"price", "value", "cost"}

// HasAnyKeyword reports whether any of vars contains any keyword,
// ignoring case.
func HasAnyKeyword(vars []string, keywords ...string) bool {
	for _, v := range vars {
		lv := strings.ToLower(v)
		for _, k := range keywords {
			if strings.Contains(lv, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}

// HasPriceVars reports whether vars name a price, value or cost.
func HasPriceVars(vars []string) bool {
	return HasAnyKeyword(vars, priceKeywords...)
}

// Decamelize turns buyerAgentId into "buyer agent id".
func Decamelize(s string) string {
	return strcase.ToDelimited(s, ' ')
}

// AxisTitle is the axis fragment {title:{text}} for vars: the decamelized
// name of a single variable, "P" for several price-like variables, and ""
// otherwise.
func AxisTitle(vars []string) map[string]any {
	text := ""
	switch {
	case len(vars) == 1:
		text = Decamelize(vars[0])
	case HasPriceVars(vars):
		text = "P"
	}
	return titled(text)
}

// AxisRange infers a range for vars: [0, H] for prices when the simulation
// sets H, [0,100] for efficiency and [0,1] for gini. It returns nil when
// nothing applies.
func AxisRange(vars []string, sim *simulation.Simulation) map[string]any {
	switch {
	case HasPriceVars(vars):
		if sim == nil {
			return nil
		}
		if h, ok := sim.Config.Float("H"); ok && h != 0 {
			return map[string]any{"range": []any{0.0, h}}
		}
		return nil
	case HasAnyKeyword(vars, "efficiency"):
		return map[string]any{"range": []any{0.0, 100.0}}
	case HasAnyKeyword(vars, "gini"):
		return map[string]any{"range": []any{0.0, 1.0}}
	}
	return nil
}

// Annotation is the case line appended to titles: "<br>case:3 tag", or ""
// when the simulation has neither a case id nor a tag.
func Annotation(sim *simulation.Simulation) string {
	if sim == nil {
		return ""
	}
	a1 := ""
	if id, ok := sim.CaseID(); ok {
		a1 = "case:" + simulation.FormatValue(id) + " "
	}
	a2 := ""
	if v, ok := sim.Config["tag"]; ok {
		a2 = simulation.FormatValue(v)
	}
	if a1 == "" && a2 == "" {
		return ""
	}
	return "<br>" + a1 + a2
}

// Compose builds a layout from base and opts. Fragments are merged in
// order: base, title, x-axis, y-axis.
func Compose(opts Options, base plotly.Layout) plotly.Layout {
	items := []map[string]any{base}
	items = append(items, map[string]any{"title": map[string]any{"text": opts.Title + Annotation(opts.Sim)}})

	switch {
	case opts.Axis != nil:
		items = append(items, xaxis(AxisTitle([]string{opts.Axis.Key})))
	case len(opts.Sims) > 0:
		text := "case id"
		if first := opts.Sims[0]; first != nil {
			if _, ok := first.Tag(); ok {
				text = "tag"
			}
		}
		items = append(items, xaxis(titled(text)))
	case len(opts.Xs) > 0:
		items = append(items, xaxis(AxisTitle(opts.Xs)))
		if r := explicitOr(opts.XRange, opts.Xs, opts.Sim); r != nil {
			items = append(items, xaxis(r))
		}
	}

	if len(opts.Ys) > 0 {
		items = append(items, yaxis(AxisTitle(opts.Ys)))
		if r := explicitOr(opts.YRange, opts.Ys, opts.Sim); r != nil {
			items = append(items, yaxis(r))
		}
	}
	return plotly.MergeLayouts(items...)
}

func explicitOr(explicit []float64, vars []string, sim *simulation.Simulation) map[string]any {
	if len(explicit) > 0 {
		return map[string]any{"range": plotly.Floats(explicit)}
	}
	return AxisRange(vars, sim)
}

func titled(text string) map[string]any {
	return map[string]any{"title": map[string]any{"text": text}}
}

func xaxis(m map[string]any) map[string]any {
	return map[string]any{"xaxis": m}
}

func yaxis(m map[string]any) map[string]any {
	return map[string]any{"yaxis": m}
}
