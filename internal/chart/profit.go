package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/maxmin"
	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

const (
	profitLog          = "profit"
	defaultPlotCount   = 4
	narrowScreenWidth  = 500
	maxGroupLabelNames = 5
)

// profitColumn names the profit log column of agent j (0-based).
func profitColumn(j int) string {
	return "y" + strconv.Itoa(j+1)
}

// tickText adds a secondary line to a label unless the screen is narrow.
func tickText(primary, secondary string, screenWidth int) string {
	if screenWidth < narrowScreenWidth {
		return primary
	}
	return primary + "<br>" + secondary
}

func shortRole(role string) string {
	r := strings.Replace(role, "Agent", "", 1)
	if len(r) > 5 {
		r = r[:5]
	}
	return r
}

// profitViolin draws each agent's profit distribution across periods.
type profitViolin struct {
	base
}

func (b *profitViolin) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	deg := b.degrader()
	d, logErr := b.env.extract(sim, profitLog)
	cols := table.Pluck(d)
	labels := sim.AgentLabels()
	colors := sim.AgentColors()

	data := make([]plotly.Trace, len(labels))
	for j, label := range labels {
		role := ""
		if j < len(sim.Agents) {
			role = shortRole(sim.Agents[j].Role)
		}
		tr := plotly.Trace{
			Name:       tickText(label, role, b.env.Settings.ScreenWidth()),
			Type:       "violin",
			MeanLine:   &plotly.MeanLine{Visible: true},
			SpanMode:   "hard",
			ShowLegend: plotly.Bool(false),
			Y:          []any{},
		}
		if j < len(colors) {
			tr.Line = &plotly.Line{Color: colors[j]}
		}
		y, err := cols.Column(profitColumn(j))
		if logErr != nil {
			err = logErr
		}
		if err != nil {
			deg.fail(j, label, err)
		} else {
			tr.Y = y
		}
		data[j] = tr
	}

	l := b.compose(layout.Options{Title: b.spec.Title, Ys: []string{"Profit"}, Sim: sim})
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

// profitTimeSeries draws each agent's profit per period.
type profitTimeSeries struct {
	base
}

func (b *profitTimeSeries) Build(in Input) (Chart, error) {
	if err := b.requireSim(in); err != nil {
		return Chart{}, err
	}
	sim := in.Sim
	deg := b.degrader()
	d, logErr := b.env.extract(sim, profitLog)
	cols := table.Pluck(d)
	labels := sim.AgentLabels()
	buyers := sim.NumberOfBuyers()

	data := make([]plotly.Trace, len(labels))
	for i, label := range labels {
		symbol := "square"
		if i < buyers {
			symbol = "circle"
		}
		tr := plotly.Trace{
			Name:   label,
			Type:   "scatter",
			Mode:   "markers",
			Marker: &plotly.Marker{Symbol: symbol},
			X:      []any{},
			Y:      []any{},
		}
		err := logErr
		var x, y []any
		if err == nil {
			x, y, err = xyColumns(cols, "period", profitColumn(i))
		}
		if err != nil {
			deg.fail(i, label, err)
		} else {
			tr.X, tr.Y = x, y
		}
		data[i] = tr
	}

	title := b.spec.Title
	if title == "" {
		title = "Profits for each agent and period"
	}
	l := b.withUserLayout(b.compose(layout.Options{
		Title: title,
		Xs:    []string{"period"},
		Ys:    []string{"profit"},
		Sim:   sim,
	}))
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

// smartProfits compares average agent profits across a study. With more
// agents than plots, a well-spread subset is drawn and every other agent
// is named alongside the drawn agent it is closest to.
type smartProfits struct {
	base
	opts SmartProfitSpec
}

func (b *smartProfits) plots() int {
	if n := int(b.opts.NumberOfPlots); n > 0 {
		return n
	}
	return defaultPlotCount
}

func (b *smartProfits) Build(in Input) (Chart, error) {
	if err := b.requireStudy(in, "smartPlotAgentProfits"); err != nil {
		return Chart{}, err
	}
	deg := b.degrader()
	sims := in.Sims
	cases := make([]any, len(sims))
	for j, sim := range sims {
		cases[j] = simulation.Name(sim, j, in.axisValues())
	}

	var labels []string
	buyers := 0
	if len(sims) > 0 && sims[0] != nil {
		labels = sims[0].AgentLabels()
		buyers = sims[0].NumberOfBuyers()
	}

	logs := make([]table.Data, len(sims))
	logErrs := make([]error, len(sims))
	for s, sim := range sims {
		logs[s], logErrs[s] = b.env.extract(sim, profitLog)
	}

	vectors := make([][]float64, len(labels))
	for j, label := range labels {
		vectors[j] = make([]float64, len(sims))
		for s := range sims {
			avg, err := averageProfit(logs[s], j)
			if logErrs[s] != nil {
				err = logErrs[s]
			}
			if err != nil {
				deg.fail(j, label+" "+cases[s].(string), err)
				continue
			}
			vectors[j][s] = avg
		}
	}

	var picked []int
	var names []string
	if k := b.plots(); k >= len(vectors) {
		for j := range vectors {
			picked = append(picked, j)
			names = append(names, labels[j])
		}
	} else {
		sel := maxmin.New(vectors)
		picked = sel.BestGuess(k).Indexes
		for _, g := range sel.Group(picked) {
			names = append(names, groupName(g, labels))
		}
	}

	data := make([]plotly.Trace, len(picked))
	for k, j := range picked {
		symbol := "square"
		if j < buyers {
			symbol = "circle"
		}
		data[k] = plotly.Trace{
			X:      cases,
			Y:      plotly.Floats(vectors[j]),
			Name:   names[k],
			Mode:   "lines+markers",
			Marker: &plotly.Marker{Symbol: symbol},
			Type:   "scatter",
		}
	}

	title := b.spec.Title
	if title == "" {
		title = "Average Profit comparison"
	}
	l := b.withUserLayout(b.compose(layout.Options{
		Title: title,
		Ys:    []string{"profit"},
		Sims:  sims,
		Axis:  in.Axis,
	}))
	return Chart{Data: data, Layout: l, Errors: deg.errs}, nil
}

// averageProfit is agent j's total profit in d divided by the number of
// periods. Non-numeric cells count as zero.
func averageProfit(d table.Data, j int) (float64, error) {
	col := d.Index(profitColumn(j))
	if col < 0 {
		return 0, fmt.Errorf("smartPlotAgentProfits: could not find column for profit data")
	}
	periods := d.Len()
	if periods == 0 {
		return 0, fmt.Errorf("smartPlotAgentProfits: no profit data")
	}
	sum := 0.0
	for _, row := range d[1:] {
		if col < len(row) {
			sum += toNumberOrZero(row[col])
		}
	}
	return sum / float64(periods), nil
}

func toNumberOrZero(v any) float64 {
	if n, ok := table.Number(v); ok && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	if s, ok := v.(string); ok {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	}
	return 0
}

// groupName labels a group by its representative and up to four peers.
func groupName(group []int, labels []string) string {
	names := make([]string, len(group))
	for i, id := range group {
		names[i] = labels[id]
	}
	switch {
	case len(names) == 1:
		return names[0]
	case len(names) <= maxGroupLabelNames:
		return names[0] + "~~" + strings.Join(names[1:], ",")
	}
	return names[0] + "~~" + strings.Join(names[1:maxGroupLabelNames], ",") +
		fmt.Sprintf("+%d more", len(names)-maxGroupLabelNames)
}
