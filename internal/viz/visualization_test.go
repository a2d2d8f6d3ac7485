package viz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ndrandal/simviz/internal/plotly"
)

func titled(text string) *Visualization {
	return &Visualization{Layout: plotly.Layout{"title": map[string]any{"text": text}}}
}

func TestAdjustTitle(t *testing.T) {
	tests := []struct {
		name  string
		start string
		adj   TitleAdjustment
		want  string
	}{
		{"prepend", "Prices", TitleAdjustment{Prepend: "Lab"}, "Lab<br>Prices"},
		{"append", "Prices", TitleAdjustment{Append: "run 2"}, "Prices<br>run 2"},
		{"replace then both", "Prices", TitleAdjustment{Replace: "P", Prepend: "a", Append: "b"}, "a<br>P<br>b"},
		{"empty title ignores prepend", "", TitleAdjustment{Prepend: "Lab"}, ""},
		{"replace empty title", "", TitleAdjustment{Replace: "New"}, "New"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := titled(tt.start).AdjustTitle(tt.adj)
			assert.Equal(t, tt.want, v.Layout.TitleText())
		})
	}
}

func TestAdjustTitleStringTitle(t *testing.T) {
	v := &Visualization{Layout: plotly.Layout{"title": "Prices"}}
	v.AdjustTitle(TitleAdjustment{Prepend: "Lab"})
	assert.Equal(t, "Lab<br>Prices", v.Layout.TitleText())
}

func TestSetInteractivityNilConfig(t *testing.T) {
	v := (&Visualization{}).SetInteractivity(true)
	assert.Equal(t, false, v.Config["staticPlot"])
	assert.Equal(t, true, v.Config["displayModeBar"])
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "the quick<br>brown fox", WrapText("the quick brown fox", 10))
	assert.Equal(t, "a<br>b", WrapText("a<br>b", 40))
	assert.Equal(t, "supercalifragilistic<br>is<br>long", WrapText("supercalifragilistic is long", 5))
	assert.Equal(t, "", WrapText("", 10))
}

func TestWrapTitleUsesScreenWidth(t *testing.T) {
	v := titled("one two three four").WrapTitle(150)
	assert.Equal(t, "one two<br>three four", v.Layout.TitleText())
}

func TestTitleAdjustmentFrom(t *testing.T) {
	adj := titleAdjustmentFrom(map[string]any{"prepend": "p", "append": 3, "replace": "r"})
	assert.Equal(t, TitleAdjustment{Prepend: "p", Replace: "r"}, adj)
	assert.True(t, TitleAdjustment{}.empty())
}
