// Package chart turns simulations into Plotly traces and layouts. Each
// chart kind is a Builder; a chart document selects the kind with its "f"
// field and parameterizes it with the remaining fields.
package chart

import (
	"fmt"
	"log/slog"

	"github.com/ndrandal/simviz/internal/config"
	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/sample"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

// Env carries what builders need besides the chart document.
type Env struct {
	Settings config.Settings
	Sampler  *sample.Sampler
	Logger   *slog.Logger
}

// NewEnv returns an Env with a clock-seeded sampler and the default logger.
func NewEnv(settings config.Settings) Env {
	return Env{Settings: settings, Sampler: sample.New(0), Logger: slog.Default()}
}

func (e Env) normalized() Env {
	if e.Sampler == nil {
		e.Sampler = sample.New(0)
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// extract fetches the named log from sim, filtered and sampled.
func (e Env) extract(sim *simulation.Simulation, name string) (table.Data, error) {
	l, err := sim.Log(name)
	if err != nil {
		return nil, err
	}
	return e.Sampler.Extract(l, e.Settings.SampleOptions()), nil
}

// Input is what a chart is built from: one simulation, or a study of
// several. Axis optionally names the variable that varies across a study.
type Input struct {
	Sim  *simulation.Simulation
	Sims []*simulation.Simulation
	Axis *layout.Axis
}

// Single wraps one simulation.
func Single(sim *simulation.Simulation) Input {
	return Input{Sim: sim}
}

// Study wraps several simulations.
func Study(sims []*simulation.Simulation, axis *layout.Axis) Input {
	if sims == nil {
		sims = []*simulation.Simulation{}
	}
	return Input{Sims: sims, Axis: axis}
}

// IsStudy reports whether the input is a list of simulations.
func (in Input) IsStudy() bool {
	return in.Sims != nil
}

func (in Input) axisValues() []any {
	if in.Axis == nil {
		return nil
	}
	return in.Axis.Values
}

// TraceError records a trace that was degraded to an empty series.
type TraceError struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Err   error  `json:"-"`
}

func (e TraceError) Error() string {
	return fmt.Sprintf("trace %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e TraceError) Unwrap() error {
	return e.Err
}

// Chart is a builder's output.
type Chart struct {
	Data   []plotly.Trace
	Layout plotly.Layout
	Config plotly.Config
	// Errors lists the degraded traces, if any.
	Errors []TraceError
}

// Builder builds one chart kind.
type Builder interface {
	Build(in Input) (Chart, error)
}

// New returns the builder for spec.
func New(spec Spec, env Env) (Builder, error) {
	b := base{spec: spec, env: env.normalized()}
	switch spec.Kind {
	case KindSupplyDemand:
		return &supplyDemand{base: b}, nil
	case KindPlot:
		return &plot{base: b, opts: spec.payload.(PlotSpec)}, nil
	case KindBoxplot, KindViolin, KindScatter:
		return &study{base: b, opts: spec.payload.(StudySpec)}, nil
	case KindHistogram:
		return &histogram{base: b, opts: spec.payload.(HistogramSpec)}, nil
	case KindHistogram2D:
		return &histogram2D{base: b, opts: spec.payload.(Histogram2DSpec)}, nil
	case KindProfitViolin:
		return &profitViolin{base: b}, nil
	case KindProfitTimeSeries:
		return &profitTimeSeries{base: b}, nil
	case KindSmartAgentProfits:
		return &smartProfits{base: b, opts: spec.payload.(SmartProfitSpec)}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, spec.Kind)
}

// base is embedded by every builder.
type base struct {
	spec Spec
	env  Env
}

func (b *base) defaultLayout() plotly.Layout {
	return b.env.Settings.DefaultLayout()
}

// compose builds the common layout for opts.
func (b *base) compose(opts layout.Options) plotly.Layout {
	return layout.Compose(opts, b.defaultLayout())
}

// withUserLayout merges the document's layout override over l.
func (b *base) withUserLayout(l plotly.Layout) plotly.Layout {
	if len(b.spec.Layout) == 0 {
		return l
	}
	return plotly.MergeLayouts(l, b.spec.Layout)
}

func (b *base) requireStudy(in Input, what string) error {
	if !in.IsStudy() {
		return fmt.Errorf("%s %w", what, ErrStudyInput)
	}
	return nil
}

func (b *base) requireSim(in Input) error {
	if in.Sim == nil {
		return fmt.Errorf("%s %w", b.spec.Kind, ErrNoSimulation)
	}
	return nil
}

// degrader collects degraded traces for one build.
type degrader struct {
	kind Kind
	log  *slog.Logger
	errs []TraceError
}

func (b *base) degrader() *degrader {
	return &degrader{kind: b.spec.Kind, log: b.env.Logger}
}

func (d *degrader) fail(i int, name string, err error) {
	d.log.Warn("trace degraded", "chart", d.kind.String(), "trace", i, "name", name, "err", err)
	d.errs = append(d.errs, TraceError{Index: i, Name: name, Err: err})
}
