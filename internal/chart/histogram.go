package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

type histogram struct {
	base
	opts HistogramSpec
}

func (b *histogram) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	o := b.opts
	deg := b.degrader()

	data := make([]plotly.Trace, 0, len(o.Names))
	var all []float64
	for i, name := range o.Names {
		tr := plotly.Trace{Name: name, Type: "histogram", Opacity: 0.4, X: []any{}}
		vals, err := b.values(sim, i)
		if err != nil {
			deg.fail(i, name, err)
		} else {
			tr.X = plotly.Floats(vals)
			all = append(all, vals...)
		}
		data = append(data, tr)
	}

	l := b.compose(layout.Options{
		Title:  b.spec.Title,
		Xs:     o.Vars,
		Ys:     []string{"N"},
		XRange: o.Range,
		Sim:    sim,
	})
	l["barmode"] = "overlay"

	lo, hi, ok := l.Range("xaxis")
	if !ok {
		lo, hi = 0, 1
		if len(all) > 0 {
			lo = math.Floor(floats.Min(all))
			hi = math.Ceil(floats.Max(all))
			if hi != 1 {
				hi++
			}
		}
		l.SetRange("xaxis", lo, hi)
	}

	bins := &plotly.Bins{Start: lo, End: hi, Size: binSize(lo, hi, o.Bins, b.env.Settings.ScreenWidth())}
	for i := range data {
		data[i].XBins = bins
	}
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

// values reads trace i: variable vars[i] of log logs[i], both cycling.
func (b *histogram) values(sim *simulation.Simulation, i int) ([]float64, error) {
	d, err := b.env.extract(sim, b.opts.Logs.At(i, ""))
	if err != nil {
		return nil, err
	}
	v := b.opts.Vars.At(i, "")
	return table.Pluck(d, v).FloatColumn(v)
}

// binSize divides [lo, hi] into bins equal bins, or when bins is not set
// grows an integer bin size until at most screenWidth/3 bins remain.
func binSize(lo, hi, bins float64, screenWidth int) float64 {
	if bins > 0 {
		return (hi - lo) / bins
	}
	limit := math.Max(1, float64(screenWidth)/3)
	size := 1.0
	for math.Ceil((hi-lo)/size) > limit {
		size++
	}
	return size
}
