// Command vizgen renders chart catalogs against simulation files, writes
// demo simulations, and watches a running vizd display endpoint.
//
// Usage:
//
//	vizgen demo -n 6 -o sims/                  # generate demo markets
//	vizgen render -o figs/ sims/*.json         # render the built-in catalog
//	vizgen render --chart 1 --charts my.yaml sims/sim01.json
//	vizgen watch --url ws://localhost:8200/display --targets chart1-0
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	settingsFile string
	seed         int64
	verbose      bool
}

func (g *globals) logger() *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "vizgen",
		Short:        "Build Plotly figures from market simulation logs",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&g.settingsFile, "settings", "", "Chart settings YAML file")
	root.PersistentFlags().Int64Var(&g.seed, "seed", 0, "Random seed (0 = clock)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(newRenderCmd(g), newDemoCmd(g), newWatchCmd())
	return root
}
