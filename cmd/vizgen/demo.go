package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/simgen"
	"github.com/ndrandal/simviz/internal/simulation"
)

func newDemoCmd(g *globals) *cobra.Command {
	var (
		n   int
		out string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate demo double auction simulations as JSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := writeDemo(random.New(g.seed), n, out)
			if err != nil {
				return err
			}
			g.logger().Info("wrote demo simulations", "count", len(paths), "out", out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 3, "Number of simulations")
	cmd.Flags().StringVarP(&out, "out", "o", "sims", "Output directory")
	return cmd
}

// writeDemo writes n generated simulations to dir as sim01.json, sim02.json
// and so on, returning the paths in case order.
func writeDemo(rng *random.RNG, n int, dir string) ([]string, error) {
	sims, err := simgen.Demo(rng, n)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	paths := make([]string, len(sims))
	for i, sim := range sims {
		paths[i] = filepath.Join(dir, fmt.Sprintf("sim%02d.json", i+1))
		if err := simulation.WriteFile(paths[i], sim); err != nil {
			return nil, err
		}
	}
	return paths, nil
}
