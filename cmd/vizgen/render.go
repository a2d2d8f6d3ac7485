package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ndrandal/simviz/internal/chart"
	"github.com/ndrandal/simviz/internal/config"
	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/sample"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/viz"
)

type renderFlags struct {
	charts      string
	chart       int
	out         string
	interactive bool
	prepend     string
	appendTitle string
	replace     string
	axisKey     string
}

func newRenderCmd(g *globals) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [simulation files...]",
		Short: "Render catalog charts for simulation files into a directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(g, f, args)
		},
	}
	cmd.Flags().StringVar(&f.charts, "charts", "", "Chart catalog file, JSON or YAML (empty = built-in catalog)")
	cmd.Flags().IntVar(&f.chart, "chart", -1, "Render only this catalog index (-1 = all)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "figures", "Output directory")
	cmd.Flags().BoolVar(&f.interactive, "interactive", false, "Enable Plotly editing controls")
	cmd.Flags().StringVar(&f.prepend, "title-prepend", "", "Line added before each title")
	cmd.Flags().StringVar(&f.appendTitle, "title-append", "", "Line added after each title")
	cmd.Flags().StringVar(&f.replace, "title-replace", "", "Replacement title text")
	cmd.Flags().StringVar(&f.axisKey, "axis", "", "Config key labelling study x values (default caseid)")
	return cmd
}

func (f *renderFlags) title() *viz.TitleAdjustment {
	adj := viz.TitleAdjustment{Prepend: f.prepend, Append: f.appendTitle, Replace: f.replace}
	if adj == (viz.TitleAdjustment{}) {
		return nil
	}
	return &adj
}

func (f *renderFlags) axis() *layout.Axis {
	if f.axisKey == "" {
		return nil
	}
	return &layout.Axis{Key: f.axisKey}
}

// runRender loads every selected chart for the simulations. Single
// simulation charts write chart<i>-<j>.json per simulation and study charts
// write chart<i>.json. A failing chart is logged and the rest still render.
func runRender(g *globals, f *renderFlags, paths []string) error {
	log := g.logger()

	settings, err := config.LoadSettings(g.settingsFile)
	if err != nil {
		return err
	}
	docs, err := viz.LoadCatalog(f.charts)
	if err != nil {
		return err
	}
	sims, err := simulation.LoadFiles(paths...)
	if err != nil {
		return err
	}
	if f.chart >= len(docs) {
		return fmt.Errorf("chart index %d out of range (catalog has %d)", f.chart, len(docs))
	}

	env := chart.Env{Settings: settings, Sampler: sample.New(g.seed), Logger: log}
	factories := viz.Build(docs, env, viz.WithRenderer(viz.DirRenderer{Dir: f.out}))

	var failed, rendered int
	for i, fac := range factories {
		if f.chart >= 0 && i != f.chart {
			continue
		}
		if fac == nil {
			failed++
			continue
		}
		opts := viz.LoadOptions{
			Sims:          sims,
			Title:         f.title(),
			IsInteractive: f.interactive,
			Axis:          f.axis(),
		}
		if fac.Study() {
			opts.To = fmt.Sprintf("chart%d", i)
		} else {
			opts.To = fmt.Sprintf("chart%d-", i)
		}
		vs, err := fac.Load(opts)
		if err != nil {
			log.Warn("chart failed", "index", i, "err", err)
			failed++
			continue
		}
		for _, v := range vs {
			log.Debug("rendered", "target", v.Target, "chart", v.Kind.String(), "degraded", len(v.Degraded))
		}
		rendered += len(vs)
	}

	log.Info("render complete", "figures", rendered, "failed", failed, "out", f.out)
	if rendered == 0 && failed > 0 {
		return errors.New("no chart rendered")
	}
	return nil
}
