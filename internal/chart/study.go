package chart

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

// study builds one distribution per simulation: box plots, violins, or a
// single scatter of means with standard-deviation error bars.
type study struct {
	base
	opts StudySpec
}

func (b *study) label() string {
	switch b.spec.Kind {
	case KindBoxplot:
		return "boxplot"
	case KindViolin:
		return "violin"
	}
	return "scatter"
}

func (b *study) Build(in Input) (Chart, error) {
	if err := b.requireStudy(in, b.label()); err != nil {
		return Chart{}, err
	}
	deg := b.degrader()
	names := make([]string, len(in.Sims))
	columns := make([][]any, len(in.Sims))
	for j, sim := range in.Sims {
		names[j] = simulation.Name(sim, j, in.axisValues())
		col, err := b.column(sim)
		if err != nil {
			deg.fail(j, names[j], err)
			continue
		}
		columns[j] = col
	}

	var data []plotly.Trace
	if b.spec.Kind == KindScatter {
		data = []plotly.Trace{b.scatter(names, columns, deg)}
	} else {
		data = make([]plotly.Trace, len(in.Sims))
		for j := range in.Sims {
			data[j] = b.distribution(names[j], columns[j])
		}
	}

	l := b.compose(layout.Options{
		Title: b.spec.Title,
		Ys:    []string{b.opts.Y},
		Sims:  in.Sims,
		Axis:  in.Axis,
	})
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

func (b *study) column(sim *simulation.Simulation) ([]any, error) {
	d, err := b.env.extract(sim, b.opts.Log)
	if err != nil {
		return nil, err
	}
	col, err := table.Pluck(d, b.opts.Y).Column(b.opts.Y)
	if err != nil {
		return nil, err
	}
	if err := table.CheckNumeric(col); err != nil {
		return nil, fmt.Errorf("%s: %w", b.opts.Y, err)
	}
	return col, nil
}

func (b *study) distribution(name string, y []any) plotly.Trace {
	if y == nil {
		y = []any{}
	}
	tr := plotly.Trace{Name: name, Y: y, ShowLegend: plotly.Bool(false)}
	if b.spec.Kind == KindBoxplot {
		tr.Type = "box"
		tr.BoxMean = "sd"
		return tr
	}
	tr.Type = "violin"
	tr.MeanLine = &plotly.MeanLine{Visible: true}
	tr.SpanMode = "hard"
	return tr
}

// scatter plots one mean per simulation. A simulation without at least
// two values leaves a gap.
func (b *study) scatter(names []string, columns [][]any, deg *degrader) plotly.Trace {
	x := make([]any, len(names))
	y := make([]any, len(names))
	sd := make([]any, len(names))
	for j, name := range names {
		x[j] = name
		if columns[j] == nil {
			continue
		}
		vals, err := table.Floats(columns[j])
		if err != nil {
			deg.fail(j, name, err)
			continue
		}
		if len(vals) <= 1 {
			deg.fail(j, name, fmt.Errorf("need at least 2 values, got %d", len(vals)))
			continue
		}
		y[j] = stat.Mean(vals, nil)
		sd[j] = stat.StdDev(vals, nil)
	}
	return plotly.Trace{
		X:      x,
		Y:      y,
		ErrorY: &plotly.ErrorBars{Type: "data", Array: sd, Visible: true},
	}
}
