package viz

import (
	"strings"

	"github.com/ndrandal/simviz/internal/chart"
	"github.com/ndrandal/simviz/internal/plotly"
)

// Visualization is a finished Plotly figure. It marshals to
// {"data":...,"layout":...,"config":...}.
type Visualization struct {
	ID     string         `json:"-"`
	Kind   chart.Kind     `json:"-"`
	Target string         `json:"-"`
	Data   []plotly.Trace `json:"data"`
	Layout plotly.Layout  `json:"layout"`
	Config plotly.Config  `json:"config"`
	// Degraded lists traces that were emptied for lack of usable data.
	Degraded []chart.TraceError `json:"-"`
}

// TitleAdjustment edits a visualization's title. Replace, when set,
// substitutes the text; Prepend and Append add a line before or after it.
type TitleAdjustment struct {
	Prepend string `json:"prepend,omitempty" yaml:"prepend,omitempty"`
	Append  string `json:"append,omitempty" yaml:"append,omitempty"`
	Replace string `json:"replace,omitempty" yaml:"replace,omitempty"`
}

func (t TitleAdjustment) empty() bool {
	return t == TitleAdjustment{}
}

// titleAdjustmentFrom reads titlePrepend, titleAppend and titleReplace
// from nested config keys.
func titleAdjustmentFrom(nested map[string]any) TitleAdjustment {
	str := func(k string) string {
		s, _ := nested[k].(string)
		return s
	}
	return TitleAdjustment{Prepend: str("prepend"), Append: str("append"), Replace: str("replace")}
}

// SetInteractivity toggles the Plotly controls that let a viewer change
// the figure.
func (v *Visualization) SetInteractivity(interactive bool) *Visualization {
	if v.Config == nil {
		v.Config = plotly.Config{}
	}
	v.Config["staticPlot"] = !interactive
	v.Config["displayModeBar"] = interactive
	v.Config["showEditInChartStudio"] = interactive
	v.Config["editable"] = interactive
	return v
}

// AdjustTitle applies adj to layout.title.text. Prepend and Append only
// apply when the title is non-empty.
func (v *Visualization) AdjustTitle(adj TitleAdjustment) *Visualization {
	if v.Layout == nil {
		v.Layout = plotly.Layout{}
	}
	text := v.Layout.TitleText()
	if adj.Replace != "" {
		text = adj.Replace
	}
	if text != "" {
		if adj.Prepend != "" {
			text = adj.Prepend + "<br>" + text
		}
		if adj.Append != "" {
			text = text + "<br>" + adj.Append
		}
	}
	v.Layout.SetTitleText(text)
	return v
}

// WrapTitle reflows each title line to fit screenWidth at roughly 15
// pixels per character.
func (v *Visualization) WrapTitle(screenWidth int) *Visualization {
	if text := v.Layout.TitleText(); text != "" {
		v.Layout.SetTitleText(WrapText(text, screenWidth/15))
	}
	return v
}

// WrapText breaks each "<br>"-separated line of text into lines of at
// most width characters, splitting at spaces. A word longer than width
// gets a line of its own.
func WrapText(text string, width int) string {
	var out []string
	for _, line := range strings.Split(text, "<br>") {
		words := strings.Split(line, " ")
		for len(words) > 0 {
			var sb strings.Builder
			room := width
			for {
				w := words[0]
				words = words[1:]
				sb.WriteString(w)
				sb.WriteByte(' ')
				room -= len(w) + 1
				if len(words) == 0 || room < len(words[0]) {
					break
				}
			}
			out = append(out, strings.TrimRight(sb.String(), " "))
		}
	}
	return strings.Join(out, "<br>")
}
