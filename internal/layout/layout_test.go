package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/simulation"
)

func sim(cfg simulation.Config) *simulation.Simulation {
	return &simulation.Simulation{Config: cfg}
}

func axisTitleText(l plotly.Layout, axis string) string {
	ax, ok := l[axis].(map[string]any)
	if !ok {
		return "<none>"
	}
	return ax["title"].(map[string]any)["text"].(string)
}

func TestHasPriceVars(t *testing.T) {
	assert.True(t, HasPriceVars([]string{"t", "Price"}))
	assert.True(t, HasPriceVars([]string{"buyerValue"}))
	assert.True(t, HasPriceVars([]string{"sellerCost"}))
	assert.False(t, HasPriceVars([]string{"t", "period"}))
	assert.False(t, HasPriceVars(nil))
}

func TestAxisTitle(t *testing.T) {
	assert.Equal(t, "buyer agent id", AxisTitle([]string{"buyerAgentId"})["title"].(map[string]any)["text"])
	assert.Equal(t, "price", AxisTitle([]string{"price"})["title"].(map[string]any)["text"])
	assert.Equal(t, "P", AxisTitle([]string{"buyerValue", "sellerCost"})["title"].(map[string]any)["text"])
	assert.Equal(t, "", AxisTitle([]string{"t", "period"})["title"].(map[string]any)["text"])
}

func TestAxisRange(t *testing.T) {
	withH := sim(simulation.Config{"H": 200.0})
	assert.Equal(t, []any{0.0, 200.0}, AxisRange([]string{"price"}, withH)["range"])
	assert.Nil(t, AxisRange([]string{"price"}, sim(simulation.Config{})))
	assert.Nil(t, AxisRange([]string{"price"}, nil))
	assert.Equal(t, []any{0.0, 100.0}, AxisRange([]string{"efficiency"}, nil)["range"])
	assert.Equal(t, []any{0.0, 1.0}, AxisRange([]string{"gini"}, nil)["range"])
	assert.Nil(t, AxisRange([]string{"t"}, withH))
}

func TestAnnotation(t *testing.T) {
	assert.Equal(t, "", Annotation(nil))
	assert.Equal(t, "", Annotation(sim(simulation.Config{})))
	assert.Equal(t, "<br>case:3 ", Annotation(sim(simulation.Config{"caseid": 3.0})))
	assert.Equal(t, "<br>case:0 hi", Annotation(sim(simulation.Config{"caseid": 0.0, "tag": "hi"})))
	assert.Equal(t, "<br>hi", Annotation(sim(simulation.Config{"tag": "hi"})))
	assert.Equal(t, "<br>case:3 7", Annotation(sim(simulation.Config{"caseid": 3.0, "tag": 7.0})))
}

func TestComposeStudyAxisNumericTag(t *testing.T) {
	sims := []*simulation.Simulation{
		sim(simulation.Config{"caseid": 3.0, "tag": 7.0}),
		sim(simulation.Config{"caseid": 4.0, "tag": 8.0}),
	}
	l := Compose(Options{Ys: []string{"price"}, Sims: sims}, nil)
	assert.Equal(t, "tag", axisTitleText(l, "xaxis"))

	l = Compose(Options{Sims: []*simulation.Simulation{nil}}, nil)
	assert.Equal(t, "case id", axisTitleText(l, "xaxis"))
}

func TestComposeSingle(t *testing.T) {
	base := plotly.Layout{"font": map[string]any{"size": 10}, "xaxis": map[string]any{"showgrid": false}}
	l := Compose(Options{
		Title: "Trades",
		Xs:    []string{"t"},
		Ys:    []string{"price"},
		Sim:   sim(simulation.Config{"caseid": 1.0, "H": 50.0}),
	}, base)

	assert.Equal(t, "Trades<br>case:1 ", l.TitleText())
	assert.Equal(t, "t", axisTitleText(l, "xaxis"))
	assert.Equal(t, false, l["xaxis"].(map[string]any)["showgrid"])
	assert.Equal(t, "price", axisTitleText(l, "yaxis"))
	_, hi, ok := l.Range("yaxis")
	require.True(t, ok)
	assert.Equal(t, 50.0, hi)
	_, _, ok = l.Range("xaxis")
	assert.False(t, ok)
	// base untouched
	_, has := base["title"]
	assert.False(t, has)
}

func TestComposeExplicitRange(t *testing.T) {
	l := Compose(Options{Xs: []string{"price"}, XRange: []float64{5, 9}, Sim: sim(simulation.Config{"H": 50.0})}, nil)
	lo, hi, ok := l.Range("xaxis")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 9}, []float64{lo, hi})
}

func TestComposeStudyAxis(t *testing.T) {
	sims := []*simulation.Simulation{sim(simulation.Config{"tag": "a"}), sim(simulation.Config{})}
	l := Compose(Options{Title: "Box", Ys: []string{"efficiency"}, Sims: sims}, nil)
	assert.Equal(t, "Box", l.TitleText())
	assert.Equal(t, "tag", axisTitleText(l, "xaxis"))
	_, hi, _ := l.Range("yaxis")
	assert.Equal(t, 100.0, hi)

	l = Compose(Options{Sims: []*simulation.Simulation{sim(simulation.Config{})}}, nil)
	assert.Equal(t, "case id", axisTitleText(l, "xaxis"))

	l = Compose(Options{Sims: sims, Axis: &Axis{Key: "numberOfBuyers"}}, nil)
	assert.Equal(t, "number of buyers", axisTitleText(l, "xaxis"))
}

func TestComposeNoAxes(t *testing.T) {
	l := Compose(Options{Title: "x"}, nil)
	_, has := l["xaxis"]
	assert.False(t, has)
	_, has = l["yaxis"]
	assert.False(t, has)
}
