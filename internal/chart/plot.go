package chart

import (
	"errors"
	"fmt"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/table"
)

var errLengthMismatch = errors.New("x and y have different lengths")

type plot struct {
	base
	opts PlotSpec
}

func (b *plot) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	o := b.opts
	deg := b.degrader()

	var colors, text []string
	if len(o.AgentColors) > 0 {
		colors = sim.AgentColors()
		text = sim.AgentText()
	}

	// columns of the shared log, when one is named
	var shared table.Columns
	var sharedErr error
	if o.Log != "" {
		var d table.Data
		d, sharedErr = b.env.extract(sim, o.Log)
		if sharedErr == nil {
			cols := append(append([]string{}, o.Xs...), o.Ys...)
			shared = table.Pluck(d, append(cols, o.AgentColors...)...)
		}
	}

	data := make([]plotly.Trace, 0, len(o.Names))
	for i, name := range o.Names {
		xvar := o.Xs.At(i, "")
		yvar := o.Ys.At(i, "")
		colorVar := o.AgentColors.At(i, "")

		symbol := "circle"
		if i < len(o.Symbols) && o.Symbols[i] != "" {
			symbol = o.Symbols[i]
		}
		tr := plotly.Trace{
			Name:   name,
			Type:   "scatter",
			Mode:   o.Modes.At(i, "markers"),
			Marker: &plotly.Marker{Size: 10, Symbol: symbol},
		}

		series, err := shared, sharedErr
		if len(o.Logs) > 0 {
			var d table.Data
			d, err = b.env.extract(sim, o.Logs.At(i, ""))
			if err == nil {
				series = table.Pluck(d, xvar, yvar, colorVar)
			}
		}
		if err == nil && series == nil {
			err = fmt.Errorf("no log for trace")
		}

		var x, y []any
		if err == nil {
			x, y, err = xyColumns(series, xvar, yvar)
		}
		// Agent coloring is skipped when the log has no such column.
		if ids, ok := series[colorVar]; err == nil && colorVar != "" && ok {
			tr.Marker.Color, tr.Marker.Text = byAgent(ids, colors, text)
			tr.HoverText = tr.Marker.Text
			tr.HoverInfo = "text+name+y+x"
		}
		if err != nil {
			deg.fail(i, name, err)
			tr.Marker.Color, tr.Marker.Text, tr.HoverText, tr.HoverInfo = nil, nil, nil, ""
			x, y = []any{}, []any{}
		}
		tr.X, tr.Y = x, y
		data = append(data, tr)
	}

	l := b.withUserLayout(b.compose(layout.Options{
		Title: b.spec.Title,
		Xs:    o.Xs,
		Ys:    o.Ys,
		Sim:   sim,
	}))
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

// xyColumns fetches two equal-length columns, checking that numeric
// columns are contiguous.
func xyColumns(series table.Columns, xvar, yvar string) ([]any, []any, error) {
	x, err := series.Column(xvar)
	if err != nil {
		return nil, nil, err
	}
	y, err := series.Column(yvar)
	if err != nil {
		return nil, nil, err
	}
	if err := table.CheckNumeric(x); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", xvar, err)
	}
	if err := table.CheckNumeric(y); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", yvar, err)
	}
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", errLengthMismatch, len(x), len(y))
	}
	return x, y, nil
}

// byAgent maps 1-based agent ids to per-point colors and hover text.
func byAgent(ids []any, colors, text []string) ([]any, []any) {
	c := make([]any, len(ids))
	t := make([]any, len(ids))
	for k, v := range ids {
		n, ok := table.Number(v)
		idx := int(n) - 1
		if !ok || idx < 0 || idx >= len(colors) {
			continue
		}
		c[k] = colors[idx]
		if idx < len(text) {
			t[k] = text[idx]
		}
	}
	return c, t
}
