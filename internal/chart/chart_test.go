package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndrandal/simviz/internal/layout"
	"github.com/ndrandal/simviz/internal/simulation"
	"github.com/ndrandal/simviz/internal/table"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("pieChart")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Len(t, Kinds(), 10)
}

func TestParseKeepsMeta(t *testing.T) {
	doc := map[string]any{
		"f":      "plotFactory",
		"title":  "Trade prices",
		"log":    "trade",
		"names":  []any{"trades"},
		"xs":     []any{"t"},
		"ys":     []any{"price"},
		"layout": map[string]any{"showlegend": true},
	}
	spec, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, KindPlot, spec.Kind)
	assert.Equal(t, "Trade prices", spec.Title)
	assert.Equal(t, doc, spec.Meta)

	spec.Meta["title"] = "changed"
	assert.Equal(t, "Trade prices", doc["title"])
}

func TestParseLenientStrings(t *testing.T) {
	spec, err := Parse(map[string]any{"f": "plotFactory", "names": "one", "xs": "t", "ys": []string{"price"}})
	require.NoError(t, err)
	p := spec.payload.(PlotSpec)
	assert.Equal(t, Strings{"one"}, p.Names)
	assert.Equal(t, Strings{"price"}, p.Ys)
}

func TestParseUnknown(t *testing.T) {
	_, err := Parse(map[string]any{"f": "nope"})
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = Parse(map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestParseHistogram2DValidation(t *testing.T) {
	ok := map[string]any{"f": "histogram2DFactory", "names": []any{"a", "b"}, "vars": []any{"t", "price"}}
	_, err := Parse(ok)
	require.NoError(t, err)

	_, err = Parse(map[string]any{"f": "histogram2DFactory", "names": "a", "vars": []any{"t", "price"}})
	require.ErrorIs(t, err, ErrInvalidSpec)
	assert.Contains(t, err.Error(), "histogram2DFactory: Expected array for chart.names got: string")

	_, err = Parse(map[string]any{"f": "histogram2DFactory", "names": []any{"a", "b"}, "vars": []any{"t", "price", "q"}})
	require.ErrorIs(t, err, ErrInvalidSpec)
	assert.Contains(t, err.Error(), "Expected vars to be array of length 2, got: 3")

	_, err = Parse(map[string]any{"f": "histogram2DFactory", "names": []any{"a", "b"}})
	assert.Contains(t, err.Error(), "Expected array for chart.vars got: undefined")
}

func TestSupplyDemand(t *testing.T) {
	sim := market(4, "")
	c := build(t, map[string]any{"f": "supplyDemand"}, Single(sim))
	require.Len(t, c.Data, 2)
	d, s := c.Data[0], c.Data[1]
	assert.Equal(t, "demand", d.Name)
	assert.Equal(t, "supply", s.Name)
	assert.Equal(t, "lines+markers", d.Mode)

	assert.Equal(t, []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5}, floatsOf(t, d.X))
	assert.Equal(t, []float64{21, 10, 10, 8, 8, 6, 6, 4, 4, 0, 0}, floatsOf(t, d.Y))
	assert.Equal(t, []float64{0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5}, floatsOf(t, s.X))
	assert.Equal(t, []float64{0, 2, 2, 4, 4, 6, 6, 8, 8, 21, 21}, floatsOf(t, s.Y))

	assert.Equal(t, ` S/D Model <br>Case 4<br><sub>CE: {"p":6,"q":[2,3]}</sub>`, c.Layout.TitleText())
	_, hi, ok := c.Layout.Range("xaxis")
	require.True(t, ok)
	assert.Equal(t, 6.0, hi)
	_, hi, ok = c.Layout.Range("yaxis")
	require.True(t, ok)
	assert.Equal(t, 20.0, hi)
	assert.Empty(t, c.Errors)
}

func TestSupplyDemandCrossingInsideTraces(t *testing.T) {
	c := build(t, map[string]any{"f": "supplyDemand"}, Single(market(1, "")))
	for _, tr := range c.Data {
		x := floatsOf(t, tr.X)
		assert.Greater(t, x[len(x)-1], 3.0)
		assert.Len(t, tr.Y, len(tr.X))
	}
}

func TestSupplyDemandMarkersForLongSchedules(t *testing.T) {
	values := make([]any, 40)
	costs := make([]any, 40)
	for i := range values {
		values[i] = float64(100 - i)
		costs[i] = float64(10 + i)
	}
	sim := market(1, "")
	sim.Config["buyerValues"] = values
	sim.Config["sellerCosts"] = costs
	c := build(t, map[string]any{"f": "supplyDemand"}, Single(sim))
	assert.Equal(t, "markers", c.Data[0].Mode)
	assert.Equal(t, 0.0, floatsOf(t, c.Data[1].Y)[0])
}

func TestSupplyDemandMissingConfig(t *testing.T) {
	sim := market(1, "")
	delete(sim.Config, "buyerValues")
	spec, err := Parse(map[string]any{"f": "supplyDemand"})
	require.NoError(t, err)
	b, err := New(spec, testEnv())
	require.NoError(t, err)
	_, err = b.Build(Single(sim))
	assert.ErrorIs(t, err, ErrMissingConfig)
	_, err = b.Build(Input{})
	assert.ErrorIs(t, err, ErrNoSimulation)
}

func TestPlotFactory(t *testing.T) {
	c := build(t, map[string]any{
		"f": "plotFactory", "title": "Trades", "log": "trade",
		"names": []any{"trades", "buyer ids"}, "xs": []any{"t"}, "ys": []any{"price", "buyerAgentId"},
		"modes": []any{"markers", "lines"}, "symbols": []any{"", "square"},
	}, Single(market(1, "")))

	require.Len(t, c.Data, 2)
	for _, tr := range c.Data {
		assert.Equal(t, len(tr.X), len(tr.Y))
		assert.Equal(t, 10.0, tr.Marker.Size)
	}
	assert.Equal(t, []float64{100, 105, 98, 102}, floatsOf(t, c.Data[0].Y))
	assert.Equal(t, "circle", c.Data[0].Marker.Symbol)
	assert.Equal(t, "square", c.Data[1].Marker.Symbol)
	assert.Equal(t, "lines", c.Data[1].Mode)
	assert.Equal(t, "Trades<br>case:1 ", c.Layout.TitleText())
	assert.Empty(t, c.Errors)
}

func TestPlotFactoryAgentColors(t *testing.T) {
	c := build(t, map[string]any{
		"f": "plotFactory", "logs": []any{"trade"},
		"names": []any{"trades"}, "xs": []any{"t"}, "ys": []any{"price"},
		"agentcolors": []any{"buyerAgentId"},
	}, Single(market(1, "")))
	tr := c.Data[0]
	assert.Equal(t, []any{"red", "green", "red", "green"}, tr.Marker.Color)
	assert.Equal(t, []any{"B1 ZI", "B2 Kaplan", "B1 ZI", "B2 Kaplan"}, tr.HoverText)
	assert.Equal(t, "text+name+y+x", tr.HoverInfo)

	c = build(t, map[string]any{
		"f": "plotFactory", "log": "trade",
		"names": []any{"trades"}, "xs": []any{"t"}, "ys": []any{"price"},
		"agentcolors": []any{"buyerAgentId"},
	}, Single(market(1, "")))
	assert.Equal(t, []any{"red", "green", "red", "green"}, c.Data[0].Marker.Color)
}

func TestPlotFactoryUnknownAgentColorColumn(t *testing.T) {
	for _, doc := range []map[string]any{
		{"f": "plotFactory", "log": "trade", "names": []any{"p"}, "xs": []any{"t"}, "ys": []any{"price"}, "agentcolors": []any{"noSuchId"}},
		{"f": "plotFactory", "logs": []any{"trade"}, "names": []any{"p"}, "xs": []any{"t"}, "ys": []any{"price"}, "agentcolors": []any{"noSuchId"}},
	} {
		c := build(t, doc, Single(market(1, "")))
		require.Len(t, c.Data, 1)
		tr := c.Data[0]
		assert.Equal(t, []float64{1, 2, 3, 4}, floatsOf(t, tr.X))
		assert.Equal(t, []float64{100, 105, 98, 102}, floatsOf(t, tr.Y))
		assert.Nil(t, tr.Marker.Color)
		assert.Nil(t, tr.HoverText)
		assert.Empty(t, tr.HoverInfo)
		assert.Empty(t, c.Errors)
	}
}

func TestPlotFactoryDegradesBadTrace(t *testing.T) {
	sim := market(1, "")
	sim.Logs["trade"].Append(3, 5, "n/a", 1, 3)
	c := build(t, map[string]any{
		"f": "plotFactory", "log": "trade",
		"names": []any{"bad", "missing", "good"}, "xs": []any{"t"}, "ys": []any{"price", "nope", "period"},
	}, Single(sim))

	require.Len(t, c.Data, 3)
	assert.Empty(t, c.Data[0].X)
	assert.Empty(t, c.Data[0].Y)
	assert.NotNil(t, c.Data[0].X)
	assert.Empty(t, c.Data[1].X)
	assert.Len(t, c.Data[2].X, 5)
	require.Len(t, c.Errors, 2)
	assert.ErrorIs(t, c.Errors[0], table.ErrNotNumeric)
	assert.Equal(t, "missing", c.Errors[1].Name)

	b, err := json.Marshal(c.Data[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"x":[]`)
}

func TestPlotFactoryMissingLog(t *testing.T) {
	c := build(t, map[string]any{
		"f": "plotFactory", "log": "ohlc", "names": []any{"a"}, "xs": []any{"t"}, "ys": []any{"price"},
	}, Single(market(1, "")))
	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0], simulation.ErrNoLog)
}

func TestPlotFactorySampled(t *testing.T) {
	sim := market(1, "")
	big := table.NewLog("t", "price")
	for i := 0; i < 100; i++ {
		big.Append(i, 50+i)
	}
	sim.Logs["big"] = big
	env := testEnv()
	env.Settings = env.Settings.WithSampleSize(5)
	c := buildWith(t, env, map[string]any{
		"f": "plotFactory", "log": "big", "names": []any{"a"}, "xs": []any{"t"}, "ys": []any{"price"},
	}, Single(sim))
	assert.Len(t, c.Data[0].X, 5)
	assert.Len(t, c.Data[0].Y, 5)
}

func studySims() []*simulation.Simulation {
	return []*simulation.Simulation{market(1, "low"), market(2, ""), market(0, "")}
}

func TestBoxplotRequiresStudy(t *testing.T) {
	spec, err := Parse(map[string]any{"f": "boxplotFactory", "log": "trade", "y": "price"})
	require.NoError(t, err)
	b, err := New(spec, testEnv())
	require.NoError(t, err)
	_, err = b.Build(Single(market(1, "")))
	require.ErrorIs(t, err, ErrStudyInput)
	assert.Equal(t, "boxplot requires an array of multiple simulations", err.Error())
}

func TestBoxplotNames(t *testing.T) {
	c := build(t, map[string]any{"f": "boxplotFactory", "title": "Prices", "log": "trade", "y": "price"},
		Study(studySims(), nil))
	require.Len(t, c.Data, 3)
	assert.Equal(t, []string{"low", "2", "2"}, []string{c.Data[0].Name, c.Data[1].Name, c.Data[2].Name})
	for _, tr := range c.Data {
		assert.Equal(t, "box", tr.Type)
		assert.Equal(t, "sd", tr.BoxMean)
		assert.Len(t, tr.Y, 4)
		assert.Nil(t, tr.X)
	}
	assert.Equal(t, "tag", c.Layout["xaxis"].(map[string]any)["title"].(map[string]any)["text"])

	c = build(t, map[string]any{"f": "boxplotFactory", "log": "trade", "y": "price"},
		Study(studySims(), &layout.Axis{Key: "numberOfBuyers", Values: []any{"a", "", 3.0}}))
	assert.Equal(t, []string{"a", "2", "3"}, []string{c.Data[0].Name, c.Data[1].Name, c.Data[2].Name})
}

func TestBoxplotNumericTags(t *testing.T) {
	a, b := market(3, ""), market(4, "")
	a.Config["tag"], b.Config["tag"] = 7.0, 8.0
	c := build(t, map[string]any{"f": "boxplotFactory", "log": "trade", "y": "price"},
		Study([]*simulation.Simulation{a, b}, nil))
	require.Len(t, c.Data, 2)
	assert.Equal(t, []string{"7", "8"}, []string{c.Data[0].Name, c.Data[1].Name})
	assert.Equal(t, "tag", c.Layout["xaxis"].(map[string]any)["title"].(map[string]any)["text"])
}

func TestViolin(t *testing.T) {
	sims := studySims()
	delete(sims[1].Logs, "trade")
	c := build(t, map[string]any{"f": "violinFactory", "log": "trade", "y": "price"}, Study(sims, nil))
	require.Len(t, c.Data, 3)
	assert.Equal(t, "violin", c.Data[0].Type)
	assert.True(t, c.Data[0].MeanLine.Visible)
	assert.Equal(t, "hard", c.Data[0].SpanMode)
	assert.Empty(t, c.Data[1].Y)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, 1, c.Errors[0].Index)
}

func TestScatterMeansAndGaps(t *testing.T) {
	sims := studySims()
	one := table.NewLog("period", "t", "price")
	one.Append(1, 1, 50)
	sims[2].Logs["trade"] = one

	c := build(t, map[string]any{"f": "scatterFactory", "log": "trade", "y": "price"}, Study(sims, nil))
	require.Len(t, c.Data, 1)
	tr := c.Data[0]
	assert.Equal(t, []any{"low", "2", "2"}, tr.X)
	assert.InDelta(t, 101.25, tr.Y[0].(float64), 1e-9)
	assert.InDelta(t, 2.9861, tr.ErrorY.Array[0].(float64), 1e-3)
	assert.Nil(t, tr.Y[2])
	assert.Nil(t, tr.ErrorY.Array[2])
	assert.Equal(t, "data", tr.ErrorY.Type)
	require.Len(t, c.Errors, 1)
	assert.Equal(t, 2, c.Errors[0].Index)
}

func TestHistogram(t *testing.T) {
	c := build(t, map[string]any{
		"f": "histogramFactory", "title": "Timing", "logs": []any{"trade"},
		"names": []any{"t", "period"}, "vars": []any{"t", "period"},
	}, Single(market(1, "")))
	require.Len(t, c.Data, 2)
	assert.Equal(t, "overlay", c.Layout["barmode"])
	for _, tr := range c.Data {
		assert.Equal(t, "histogram", tr.Type)
		assert.Equal(t, 0.4, tr.Opacity)
		assert.Equal(t, 1.0, tr.XBins.Start)
		assert.Equal(t, 5.0, tr.XBins.End)
		assert.Equal(t, 1.0, tr.XBins.Size)
	}
	assert.Len(t, c.Data[1].X, 4)
	lo, hi, ok := c.Layout.Range("xaxis")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 5}, []float64{lo, hi})
}

func TestHistogramExplicitRangeAndBins(t *testing.T) {
	c := build(t, map[string]any{
		"f": "histogramFactory", "logs": []any{"trade"}, "names": []any{"p"}, "vars": []any{"price"},
		"range": []any{90, 110}, "bins": 4,
	}, Single(market(1, "")))
	assert.Equal(t, 5.0, c.Data[0].XBins.Size)
	assert.Equal(t, 90.0, c.Data[0].XBins.Start)
}

func TestHistogramPriceRangeFromH(t *testing.T) {
	c := build(t, map[string]any{
		"f": "histogramFactory", "logs": []any{"trade"}, "names": []any{"p"}, "vars": []any{"price"},
	}, Single(market(1, "")))
	_, hi, _ := c.Layout.Range("xaxis")
	assert.Equal(t, 20.0, hi)
}

func TestBinSizeGrows(t *testing.T) {
	assert.Equal(t, 1.0, binSize(0, 100, 0, 600))
	assert.Equal(t, 5.0, binSize(0, 1000, 0, 600))
	assert.Equal(t, 1.0, binSize(0, 1, 0, 0))
}

func TestHistogram2D(t *testing.T) {
	c := build(t, map[string]any{
		"f": "histogram2DFactory", "title": "t vs price", "log": "trade",
		"names": []any{"t", "price"}, "vars": []any{"t", "price"},
		"density": map[string]any{"ncontours": 10},
		"layout":  map[string]any{"bargap": 0.1},
	}, Single(market(1, "")))
	require.Len(t, c.Data, 4)
	assert.Equal(t, "points", c.Data[0].Name)
	assert.Equal(t, "markers", c.Data[0].Mode)
	assert.Equal(t, "histogram2dcontour", c.Data[1].Type)
	assert.Equal(t, "y2", c.Data[2].YAxis)
	assert.Equal(t, "x2", c.Data[3].XAxis)
	assert.Len(t, c.Data[2].X, 4)
	assert.Len(t, c.Data[3].Y, 4)
	assert.Equal(t, pointColor, c.Data[2].Marker.Color)

	b, err := json.Marshal(c.Data[1])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ncontours":10`)

	assert.Equal(t, 0.1, c.Layout["bargap"])
	assert.Equal(t, []any{0.0, 0.8}, c.Layout["xaxis"].(map[string]any)["domain"])
	assert.Equal(t, []any{0.8, 1.0}, c.Layout["yaxis2"].(map[string]any)["domain"])
	assert.Equal(t, false, c.Layout["xaxis"].(map[string]any)["showgrid"])
}

func TestHistogram2DPointColor(t *testing.T) {
	c := build(t, map[string]any{
		"f": "histogram2DFactory", "log": "trade",
		"names": []any{"t", "price"}, "vars": []any{"t", "price"},
		"points": map[string]any{"marker": map[string]any{"color": "purple"}},
	}, Single(market(1, "")))
	require.Len(t, c.Data, 4)
	assert.Equal(t, "purple", c.Data[0].Marker.Color)
	assert.Equal(t, "purple", c.Data[2].Marker.Color)

	b, err := json.Marshal(c.Data[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `"marker":{"color":"purple"}`)
}

func TestProfitViolin(t *testing.T) {
	c := build(t, map[string]any{"f": "plotProfitDistributionViolin"}, Single(market(1, "")))
	require.Len(t, c.Data, 3)
	assert.Equal(t, "B1<br>ZI", c.Data[0].Name)
	assert.Equal(t, "B2<br>Kapla", c.Data[1].Name)
	assert.Equal(t, "red", c.Data[0].Line.Color)
	assert.Equal(t, "darkviolet", c.Data[2].Line.Color)
	assert.Equal(t, []any{30.0, 60.0}, c.Data[2].Y)

	env := testEnv()
	env.Settings = env.Settings.WithScreenWidth(400)
	c = buildWith(t, env, map[string]any{"f": "plotProfitDistributionViolin"}, Single(market(1, "")))
	assert.Equal(t, "B1", c.Data[0].Name)
}

func TestProfitTimeSeries(t *testing.T) {
	c := build(t, map[string]any{"f": "plotProfitTimeSeries", "layout": map[string]any{"height": 300}},
		Single(market(1, "")))
	require.Len(t, c.Data, 3)
	assert.Equal(t, "circle", c.Data[1].Marker.Symbol)
	assert.Equal(t, "square", c.Data[2].Marker.Symbol)
	assert.Equal(t, []float64{1, 2}, floatsOf(t, c.Data[0].X))
	assert.Equal(t, "Profits for each agent and period<br>case:1 ", c.Layout.TitleText())
	assert.Equal(t, 300.0, c.Layout["height"])
}

func TestSmartPlotAllAgents(t *testing.T) {
	sims := []*simulation.Simulation{market(1, "", 5, 7), market(2, "", 1, 1), market(3, "", 9)}
	c := build(t, map[string]any{"f": "smartPlotAgentProfits"}, Study(sims, nil))
	require.Len(t, c.Data, 3)
	for _, tr := range c.Data {
		assert.Len(t, tr.X, 3)
		for _, v := range floatsOf(t, tr.Y) {
			assert.Greater(t, v, 0.0)
		}
	}
	assert.Equal(t, []float64{6, 1, 9}, floatsOf(t, c.Data[0].Y))
	assert.Equal(t, "B1", c.Data[0].Name)
	assert.Equal(t, "Average Profit comparison", c.Layout.TitleText())
}

func TestSmartPlotSelectsAndGroups(t *testing.T) {
	sims := []*simulation.Simulation{market(1, "", 5), market(2, "", 1)}
	c := build(t, map[string]any{"f": "smartPlotAgentProfits", "numberOfPlots": 2}, Study(sims, nil))
	require.Len(t, c.Data, 2)
	joined := c.Data[0].Name + c.Data[1].Name
	assert.Contains(t, joined, "~~")
}

func TestSmartPlotRequiresStudy(t *testing.T) {
	spec, err := Parse(map[string]any{"f": "smartPlotAgentProfits"})
	require.NoError(t, err)
	b, err := New(spec, testEnv())
	require.NoError(t, err)
	_, err = b.Build(Single(market(1, "")))
	assert.ErrorIs(t, err, ErrStudyInput)
}

func TestGroupName(t *testing.T) {
	labels := []string{"B1", "B2", "B3", "B4", "B5", "B6", "B7"}
	assert.Equal(t, "B1", groupName([]int{0}, labels))
	assert.Equal(t, "B1~~B2,B3", groupName([]int{0, 1, 2}, labels))
	assert.Equal(t, "B1~~B2,B3,B4,B5", groupName([]int{0, 1, 2, 3, 4}, labels))
	assert.Equal(t, "B1~~B2,B3,B4,B5+2 more", groupName([]int{0, 1, 2, 3, 4, 5, 6}, labels))
}

func TestToNumberOrZero(t *testing.T) {
	assert.Equal(t, 3.0, toNumberOrZero(3))
	assert.Equal(t, 2.5, toNumberOrZero("2.5"))
	assert.Equal(t, 0.0, toNumberOrZero("x"))
	assert.Equal(t, 0.0, toNumberOrZero(nil))
}
