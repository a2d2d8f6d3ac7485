package chart

import (
	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/table"
)

const pointColor = "rgb(102,0,0)"

// histogram2D draws a scatter of two variables over their density contour,
// with a marginal histogram for each variable.
type histogram2D struct {
	base
	opts Histogram2DSpec
}

func (b *histogram2D) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	o := b.opts
	deg := b.degrader()

	x, y := []any{}, []any{}
	d, err := b.env.extract(sim, o.Log)
	if err == nil {
		cols := table.Pluck(d, o.Vars...)
		var xs, ys []float64
		if xs, err = cols.FloatColumn(o.Vars[0]); err == nil {
			if ys, err = cols.FloatColumn(o.Vars[1]); err == nil {
				x, y = plotly.Floats(xs), plotly.Floats(ys)
			}
		}
	}
	if err != nil {
		for i, name := range []string{"points", "density", o.Names[0], o.Names[1]} {
			deg.fail(i, name, err)
		}
	}

	color := pointColor
	if m, ok := o.Points["marker"].(map[string]any); ok {
		if c, ok := m["color"].(string); ok {
			color = c
		}
	}

	data := []plotly.Trace{
		{
			X: x, Y: y, Mode: "markers", Name: "points",
			Marker: &plotly.Marker{Color: color, Size: 4, Opacity: 0.5},
			Extra:  o.Points,
		},
		{
			X: x, Y: y, Name: "density", NContours: 30, ColorScale: "Hot",
			ReverseScale: true, ShowScale: plotly.Bool(false), Type: "histogram2dcontour",
			Extra: o.Density,
		},
		{
			X: x, Name: o.Names[0], Marker: &plotly.Marker{Color: color},
			YAxis: "y2", Type: "histogram",
			Extra: o.Upper,
		},
		{
			Y: y, Name: o.Names[1], Marker: &plotly.Marker{Color: color},
			XAxis: "x2", Type: "histogram",
			Extra: o.Right,
		},
	}

	common := plotly.Merge(map[string]any{"showgrid": false, "zeroline": false}, o.AxisCommon)
	inner := plotly.Merge(common, map[string]any{"domain": []any{0.0, 0.8}})
	marginal := plotly.Merge(common, map[string]any{
		"title":  map[string]any{"text": "n"},
		"domain": []any{0.8, 1.0},
	})
	l := plotly.MergeLayouts(
		b.compose(layout.Options{
			Title: b.spec.Title,
			Xs:    o.Vars[:1],
			Ys:    o.Vars[1:2],
			Sim:   sim,
		}),
		map[string]any{
			"showlegend": false,
			"margin":     map[string]any{"t": 50},
			"hovermode":  "closest",
			"bargap":     0,
			"xaxis":      inner,
			"yaxis":      inner,
			"xaxis2":     marginal,
			"yaxis2":     marginal,
		},
		b.spec.Layout,
	)
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}
