package chart

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndrandal/simviz/internal/config"
	"github.com/ndrandal/simviz/internal/sample"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

func testEnv() Env {
	return Env{
		Settings: config.DefaultSettings(),
		Sampler:  sample.New(1),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// market returns a 2 buyer, 1 seller simulation with trade and profit
// logs. profits[k] is added to every agent's profit in period k+1.
func market(caseid float64, tag string, profits ...float64) *simulation.Simulation {
	trade := table.NewLog("period", "t", "price", "buyerAgentId", "sellerAgentId")
	trade.Append(1, 1, 100, 1, 3)
	trade.Append(1, 2, 105, 2, 3)
	trade.Append(2, 3, 98, 1, 3)
	trade.Append(2, 4, 102, 2, 3)

	profit := table.NewLog("period", "y1", "y2", "y3")
	if len(profits) == 0 {
		profits = []float64{10, 20}
	}
	for k, p := range profits {
		profit.Append(k+1, p, 2*p, 3*p)
	}

	cfg := simulation.Config{
		"caseid":          caseid,
		"numberOfBuyers":  2.0,
		"numberOfSellers": 1.0,
		"buyerValues":     []any{10.0, 8.0, 6.0, 4.0},
		"sellerCosts":     []any{2.0, 4.0, 6.0, 8.0},
		"H":               20.0,
	}
	if tag != "" {
		cfg["tag"] = tag
	}
	return &simulation.Simulation{
		Config: cfg,
		Logs:   map[string]*table.Log{"trade": trade, "profit": profit},
		Agents: []simulation.Agent{
			{Color: "red", Role: "ZIAgent"},
			{Color: "green", Role: "KaplanAgent"},
			{Role: "ZIAgent"},
		},
	}
}

func build(t *testing.T, doc map[string]any, in Input) Chart {
	t.Helper()
	return buildWith(t, testEnv(), doc, in)
}

func buildWith(t *testing.T, env Env, doc map[string]any, in Input) Chart {
	t.Helper()
	spec, err := Parse(doc)
	require.NoError(t, err)
	b, err := New(spec, env)
	require.NoError(t, err)
	c, err := b.Build(in)
	require.NoError(t, err)
	return c
}

func floatsOf(t *testing.T, v []any) []float64 {
	t.Helper()
	f, err := table.Floats(v)
	require.NoError(t, err)
	return f
}
