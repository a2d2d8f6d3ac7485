// Package viz turns chart documents into factories that load simulations
// into finished visualizations and optionally render them to display
// targets.
package viz

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ndrandal/simviz/internal/chart"
	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
)

var (
	// ErrNoSource is returned by Load when no simulation is given.
	ErrNoSource = errors.New("no simulation to visualize")
	// ErrStudySource is returned by Load when a study chart gets one simulation.
	ErrStudySource = errors.New("study charts require an array of simulations")
)

// DefaultConfig is the Plotly config every factory starts from.
func DefaultConfig() plotly.Config {
	return plotly.Config{
		"responsive":      true,
		"displaylogo":     false,
		"plotlyServerURL": "https://chart-studio.plotly.com",
	}
}

// LoadError wraps a builder failure with the chart it came from.
type LoadError struct {
	Title string
	Func  string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("visual %s: Function :%s: Error :%v", e.Title, e.Func, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Option configures a Factory.
type Option func(*Factory)

// WithRenderer sets where visualizations with a target are rendered.
func WithRenderer(r Renderer) Option {
	return func(f *Factory) { f.renderer = r }
}

// WithLayout merges l over the settings' default layout as the layout
// every visualization starts from.
func WithLayout(l map[string]any) Option {
	return func(f *Factory) { f.layout = plotly.MergeLayouts(f.layout, l) }
}

// WithConfig merges c over DefaultConfig.
func WithConfig(c map[string]any) Option {
	return func(f *Factory) { f.config = plotly.Config(plotly.Merge(f.config, c)) }
}

// Factory builds visualizations for one chart document.
type Factory struct {
	spec     chart.Spec
	builder  chart.Builder
	env      chart.Env
	layout   plotly.Layout
	config   plotly.Config
	renderer Renderer
	log      *slog.Logger
}

// NewFactory parses doc and prepares its builder.
func NewFactory(doc map[string]any, env chart.Env, opts ...Option) (*Factory, error) {
	spec, err := chart.Parse(doc)
	if err != nil {
		return nil, err
	}
	b, err := chart.New(spec, env)
	if err != nil {
		return nil, err
	}
	log := env.Logger
	if log == nil {
		log = slog.Default()
	}
	f := &Factory{
		spec:    spec,
		builder: b,
		env:     env,
		layout:  plotly.Layout{},
		config:  DefaultConfig(),
		log:     log,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Meta returns a copy of the chart document the factory was made from.
func (f *Factory) Meta() map[string]any {
	return plotly.Clone(f.spec.Meta)
}

// Kind returns the chart kind.
func (f *Factory) Kind() chart.Kind {
	return f.spec.Kind
}

// Title returns the chart document's title.
func (f *Factory) Title() string {
	return f.spec.Title
}

// Study reports whether the factory expects a list of simulations.
func (f *Factory) Study() bool {
	return f.spec.Study()
}

// LoadOptions select what to visualize and where to send it. Set Sim for
// one simulation or Sims for several.
type LoadOptions struct {
	Sim  *simulation.Simulation
	Sims []*simulation.Simulation
	// To names the display target. When several simulations are loaded
	// into a single-simulation chart each gets To plus its index.
	To            string
	Title         *TitleAdjustment
	IsInteractive bool
	Axis          *layout.Axis
}

// Load builds visualizations from opts. A study chart yields one
// visualization of all simulations; any other chart yields one per
// simulation.
func (f *Factory) Load(opts LoadOptions) ([]*Visualization, error) {
	if opts.Sim == nil && opts.Sims == nil {
		return nil, f.wrap(ErrNoSource)
	}
	if f.Study() {
		if opts.Sims == nil {
			return nil, f.wrap(ErrStudySource)
		}
		v, err := f.loadOne(chart.Study(opts.Sims, opts.Axis), opts)
		if err != nil {
			return nil, err
		}
		return []*Visualization{v}, nil
	}
	if opts.Sims == nil {
		v, err := f.loadOne(chart.Single(opts.Sim), opts)
		if err != nil {
			return nil, err
		}
		return []*Visualization{v}, nil
	}

	out := make([]*Visualization, 0, len(opts.Sims))
	for j, sim := range opts.Sims {
		sub := opts
		sub.Sim, sub.Sims, sub.Axis = sim, nil, nil
		if opts.To != "" {
			sub.To = opts.To + strconv.Itoa(j)
		}
		v, err := f.loadOne(chart.Single(sim), sub)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *Factory) loadOne(in chart.Input, opts LoadOptions) (*Visualization, error) {
	kind := f.spec.Kind.String()
	start := time.Now()
	c, err := f.builder.Build(in)
	chartBuildLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		chartBuilds.WithLabelValues(kind, "error").Inc()
		return nil, f.wrap(err)
	}
	chartBuilds.WithLabelValues(kind, "ok").Inc()
	if n := len(c.Errors); n > 0 {
		degradedTraces.WithLabelValues(kind).Add(float64(n))
	}

	v := &Visualization{
		ID:       uuid.New().String(),
		Kind:     f.spec.Kind,
		Data:     c.Data,
		Layout:   plotly.MergeLayouts(f.layout, c.Layout),
		Config:   plotly.Config(plotly.Merge(f.config, c.Config)),
		Degraded: c.Errors,
	}
	v.SetInteractivity(opts.IsInteractive)

	switch {
	case opts.Title != nil:
		v.AdjustTitle(*opts.Title)
	case in.Sim != nil:
		if adj := titleAdjustmentFrom(in.Sim.Config.Nested("title")); !adj.empty() {
			v.AdjustTitle(adj)
		}
	}

	if opts.To != "" {
		v.Target = opts.To
		f.render(v)
	}
	return v, nil
}

func (f *Factory) render(v *Visualization) {
	if f.renderer == nil {
		renders.WithLabelValues("skipped").Inc()
		f.log.Debug("no renderer, skipping display", "target", v.Target)
		return
	}
	v.WrapTitle(f.env.Settings.ScreenWidth())
	if err := f.renderer.Render(v.Target, v); err != nil {
		renders.WithLabelValues("error").Inc()
		f.log.Warn("render failed", "target", v.Target, "chart", f.spec.Kind.String(), "err", err)
		return
	}
	renders.WithLabelValues("ok").Inc()
}

func (f *Factory) wrap(err error) error {
	return &LoadError{Title: f.spec.Title, Func: f.spec.Kind.String(), Err: err}
}

// Build makes a factory per chart document. Documents that fail to parse
// are logged and left as nil entries so indexes line up with the input.
func Build(docs []map[string]any, env chart.Env, opts ...Option) []*Factory {
	log := env.Logger
	if log == nil {
		log = slog.Default()
	}
	out := make([]*Factory, len(docs))
	for i, doc := range docs {
		f, err := NewFactory(doc, env, opts...)
		if err != nil {
			log.Error("chart rejected", "index", i, "err", err)
			continue
		}
		out[i] = f
	}
	return out
}
