package chart

import (
	"fmt"
	"math"
	"sort"

	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/pricing"
	"github.com/ndrandal/simviz/internal/simulation"
)

// Step plots stay readable up to this many units; beyond it only markers
// are drawn.
const maxStepUnits = 30

type supplyDemand struct {
	base
}

func (b *supplyDemand) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	values, ok := sim.Config.Floats("buyerValues")
	if !ok || len(values) == 0 {
		return Chart{}, fmt.Errorf("%s: %w: buyerValues", b.spec.Kind, ErrMissingConfig)
	}
	costs, ok := sim.Config.Floats("sellerCosts")
	if !ok || len(costs) == 0 {
		return Chart{}, fmt.Errorf("%s: %w: sellerCosts", b.spec.Kind, ErrMissingConfig)
	}

	demand := append([]float64(nil), values...)
	sort.Sort(sort.Reverse(sort.Float64Slice(demand)))
	supply := append([]float64(nil), costs...)
	sort.Float64s(supply)

	if demand[len(demand)-1] > 0 {
		demand = append(demand, 0)
	}
	h, _ := sim.Config.Float("H")
	h = max(h, demand[0], supply[len(supply)-1])
	if supply[len(supply)-1] <= h {
		supply = append(supply, h+1)
	}

	ce, err := pricing.CrossSingleUnitDemandAndSupply(demand, supply)
	if err != nil {
		return Chart{}, fmt.Errorf("%s: %w", b.spec.Kind, err)
	}

	maxLen := max(len(demand), len(supply))
	minLen := min(len(demand), len(supply))
	steps := maxLen <= maxStepUnits
	mode := "markers"
	if steps {
		mode = "lines+markers"
	}
	cutoff := min(minLen+10, maxLen)
	idxStep := max(1, int(math.Ceil(float64(minLen)/50)))

	c := newCurves(demand, supply, h, steps)
	q0, q1 := quantityBounds(ce.Q)
	for i := 0; i < q0-1; i += idxStep {
		c.include(i)
	}
	c.include(q0 - 1)
	for i := q0; i < q1-1; i += idxStep {
		c.include(i)
	}
	c.include(q1 - 1)
	if cutoff > q1 {
		for i := q1; i < cutoff; i += min(cutoff-q1, idxStep) {
			c.include(i)
		}
	}

	data := []plotly.Trace{
		{Name: "demand", Type: "scatter", Mode: mode, X: plotly.Floats(c.xD), Y: plotly.Floats(c.yD)},
		{Name: "supply", Type: "scatter", Mode: mode, X: plotly.Floats(c.xS), Y: plotly.Floats(c.yS)},
	}

	caseID, _ := sim.CaseID()
	title := " S/D Model <br>Case " + simulation.FormatValue(caseID) + "<br><sub>" + ce.Summary() + "</sub>"
	l := plotly.MergeLayouts(
		b.defaultLayout(),
		map[string]any{"yaxis": map[string]any{"range": []any{0.0, h}, "title": map[string]any{"text": "P"}}},
		map[string]any{
			"xaxis": map[string]any{"range": []any{0.0, float64(cutoff + 1)}, "title": map[string]any{"text": "Q"}},
			"title": map[string]any{"text": title},
		},
	)
	return Chart{Data: data, Layout: l}, nil
}

// quantityBounds converts the equilibrium quantity into the unit indexes
// that must always be drawn.
func quantityBounds(q pricing.Range) (int, int) {
	if !q.IsPoint() {
		return int(q.Low), int(q.High)
	}
	if q.Low > 0 {
		return int(q.Low), int(q.Low) + 1
	}
	return 0, 1
}

// curves accumulates the plotted points of both schedules. Demand starts
// at (0, H+1) and supply at (0, 0).
type curves struct {
	demand, supply []float64
	steps          bool
	xD, yD, xS, yS []float64
}

func newCurves(demand, supply []float64, h float64, steps bool) *curves {
	return &curves{
		demand: demand, supply: supply, steps: steps,
		xD: []float64{0}, yD: []float64{h + 1},
		xS: []float64{0}, yS: []float64{0},
	}
}

// include draws unit i of each schedule that has one. In step mode a
// vertical riser is added whenever the level changes.
func (c *curves) include(i int) {
	if i < 0 {
		return
	}
	if i < len(c.demand) {
		v := c.demand[i]
		if c.steps && v != c.yD[len(c.yD)-1] {
			c.xD = append(c.xD, float64(i))
			c.yD = append(c.yD, v)
		}
		c.xD = append(c.xD, float64(i+1))
		c.yD = append(c.yD, v)
	}
	if i < len(c.supply) {
		v := c.supply[i]
		if c.steps && v != c.yS[len(c.yS)-1] {
			c.xS = append(c.xS, float64(i))
			c.yS = append(c.yS, v)
		}
		c.xS = append(c.xS, float64(i+1))
		c.yS = append(c.yS, v)
	}
}
