package chart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ndrandal/simviz/internal/plotly"
)

// Kind identifies a chart builder.
type Kind int

const (
	KindSupplyDemand Kind = iota + 1
	KindPlot
	KindBoxplot
	KindViolin
	KindScatter
	KindHistogram
	KindHistogram2D
	KindProfitViolin
	KindProfitTimeSeries
	KindSmartAgentProfits
)

var kindNames = map[Kind]string{
	KindSupplyDemand:      "supplyDemand",
	KindPlot:              "plotFactory",
	KindBoxplot:           "boxplotFactory",
	KindViolin:            "violinFactory",
	KindScatter:           "scatterFactory",
	KindHistogram:         "histogramFactory",
	KindHistogram2D:       "histogram2DFactory",
	KindProfitViolin:      "plotProfitDistributionViolin",
	KindProfitTimeSeries:  "plotProfitTimeSeries",
	KindSmartAgentProfits: "smartPlotAgentProfits",
}

// String returns the name chart documents use in their "f" field.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds lists every chart kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindSupplyDemand; k <= KindSmartAgentProfits; k++ {
		out = append(out, k)
	}
	return out
}

// ParseKind resolves a chart document's "f" field.
func ParseKind(name string) (Kind, error) {
	for k, s := range kindNames {
		if s == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

var (
	// ErrUnknownKind is returned for a chart document naming no known builder.
	ErrUnknownKind = errors.New("unknown chart function")
	// ErrInvalidSpec is returned for structurally invalid chart documents.
	ErrInvalidSpec = errors.New("invalid chart specification")
	// ErrStudyInput is returned when a study chart is given a single simulation.
	ErrStudyInput = errors.New("requires an array of multiple simulations")
	// ErrNoSimulation is returned when a single-simulation chart is given none.
	ErrNoSimulation = errors.New("requires a simulation")
	// ErrMissingConfig is returned when a simulation lacks required config.
	ErrMissingConfig = errors.New("missing simulation config")
)

// Strings decodes either a single string or an array of strings.
type Strings []string

// UnmarshalJSON accepts "a" as well as ["a","b"].
func (s *Strings) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = Strings{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// At returns s[i % len(s)], or def when s is empty.
func (s Strings) At(i int, def string) string {
	if len(s) == 0 {
		return def
	}
	return s[i%len(s)]
}

// Spec is a parsed chart document. Meta keeps the document as given.
type Spec struct {
	Kind   Kind
	Title  string
	Input  string
	Layout map[string]any
	Meta   map[string]any

	payload any
}

// Study reports whether the chart is built from a list of simulations.
func (s Spec) Study() bool {
	return s.Input == "study"
}

type common struct {
	F      string         `json:"f"`
	Title  string         `json:"title"`
	Input  string         `json:"input"`
	Layout map[string]any `json:"layout"`
}

// PlotSpec configures plotFactory.
type PlotSpec struct {
	Log         string  `json:"log"`
	Logs        Strings `json:"logs"`
	Names       Strings `json:"names"`
	Xs          Strings `json:"xs"`
	Ys          Strings `json:"ys"`
	Modes       Strings `json:"modes"`
	Symbols     Strings `json:"symbols"`
	AgentColors Strings `json:"agentcolors"`
}

// StudySpec configures boxplotFactory, violinFactory and scatterFactory.
type StudySpec struct {
	Log string `json:"log"`
	Y   string `json:"y"`
}

// HistogramSpec configures histogramFactory.
type HistogramSpec struct {
	Logs  Strings   `json:"logs"`
	Names Strings   `json:"names"`
	Vars  Strings   `json:"vars"`
	Bins  float64   `json:"bins"`
	Range []float64 `json:"range"`
}

// Histogram2DSpec configures histogram2DFactory.
type Histogram2DSpec struct {
	Log        string         `json:"log"`
	Names      []string       `json:"names"`
	Vars       []string       `json:"vars"`
	Points     map[string]any `json:"points"`
	Density    map[string]any `json:"density"`
	Upper      map[string]any `json:"upper"`
	Right      map[string]any `json:"right"`
	AxisCommon map[string]any `json:"axiscommon"`
}

// SmartProfitSpec configures smartPlotAgentProfits.
type SmartProfitSpec struct {
	NumberOfPlots float64 `json:"numberOfPlots"`
}

// Parse validates a chart document and decodes its kind-specific fields.
func Parse(doc map[string]any) (Spec, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	var c common
	if err := json.Unmarshal(b, &c); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	kind, err := ParseKind(c.F)
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{
		Kind:   kind,
		Title:  c.Title,
		Input:  c.Input,
		Layout: c.Layout,
		Meta:   plotly.Clone(doc),
	}

	switch kind {
	case KindPlot:
		spec.payload, err = decode[PlotSpec](b)
	case KindBoxplot, KindViolin, KindScatter:
		spec.payload, err = decode[StudySpec](b)
	case KindHistogram:
		spec.payload, err = decode[HistogramSpec](b)
	case KindHistogram2D:
		if err := checkPair(doc, "names"); err != nil {
			return Spec{}, err
		}
		if err := checkPair(doc, "vars"); err != nil {
			return Spec{}, err
		}
		spec.payload, err = decode[Histogram2DSpec](b)
	case KindSmartAgentProfits:
		spec.payload, err = decode[SmartProfitSpec](b)
	}
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, kind, err)
	}
	return spec, nil
}

func decode[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}

func checkPair(doc map[string]any, field string) error {
	arr, ok := doc[field].([]any)
	if !ok {
		if s, ok := doc[field].([]string); ok {
			arr = make([]any, len(s))
			for i := range s {
				arr[i] = s[i]
			}
		} else {
			return fmt.Errorf("%w: histogram2DFactory: Expected array for chart.%s got: %s", ErrInvalidSpec, field, jsType(doc[field]))
		}
	}
	if len(arr) != 2 {
		return fmt.Errorf("%w: histogram2DFactory: Expected %s to be array of length 2, got: %d", ErrInvalidSpec, field, len(arr))
	}
	return nil
}

func jsType(v any) string {
	switch v.(type) {
	case nil:
		return "undefined"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case float64, float32, int, int64, int32:
		return "number"
	}
	return fmt.Sprintf("%T", v)
}
