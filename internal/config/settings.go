package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ndrandal/simviz/internal/plotly"
	"github.com/ndrandal/simviz/internal/sample"
)

// DefaultScreenWidth is used when no screen width is configured.
const DefaultScreenWidth = 600

// Settings are the chart-wide options threaded through every build. The
// zero value is not useful; start from DefaultSettings. Settings are
// values: the With methods return modified copies.
type Settings struct {
	defaultLayout plotly.Layout
	sampleSize    int
	filter        *sample.Filter
	screenWidth   int
	preserveOrder bool
}

// DefaultSettings returns settings with an empty default layout, no
// sampling, no filter and a 600px screen.
func DefaultSettings() Settings {
	return Settings{screenWidth: DefaultScreenWidth}
}

// WithDefaultLayout sets the layout every chart starts from.
func (s Settings) WithDefaultLayout(l map[string]any) Settings {
	s.defaultLayout = plotly.Clone(l)
	return s
}

// DefaultLayout returns a copy of the default layout.
func (s Settings) DefaultLayout() plotly.Layout {
	if s.defaultLayout == nil {
		return plotly.Layout{}
	}
	return plotly.Clone(s.defaultLayout)
}

// WithSampleSize caps the rows plotted per log. Zero or negative disables
// sampling.
func (s Settings) WithSampleSize(n int) Settings {
	s.sampleSize = n
	return s
}

// SampleSize returns the row cap, or 0 when sampling is disabled.
func (s Settings) SampleSize() int {
	if s.sampleSize < 0 {
		return 0
	}
	return s.sampleSize
}

// WithFilter sets the log filter. Nil clears it.
func (s Settings) WithFilter(f *sample.Filter) Settings {
	if f != nil {
		c := *f
		f = &c
	}
	s.filter = f
	return s
}

// Filter returns a copy of the log filter, or nil.
func (s Settings) Filter() *sample.Filter {
	if s.filter == nil {
		return nil
	}
	c := *s.filter
	return &c
}

// WithScreenWidth sets the target screen width in pixels.
func (s Settings) WithScreenWidth(w int) Settings {
	s.screenWidth = w
	return s
}

// ScreenWidth returns the target screen width, defaulting to 600.
func (s Settings) ScreenWidth() int {
	if s.screenWidth <= 0 {
		return DefaultScreenWidth
	}
	return s.screenWidth
}

// WithPreserveSampleOrder keeps sampled rows in log order.
func (s Settings) WithPreserveSampleOrder(b bool) Settings {
	s.preserveOrder = b
	return s
}

// SampleOptions converts the settings into extraction options.
func (s Settings) SampleOptions() sample.Options {
	return sample.Options{
		Size:          s.SampleSize(),
		Filter:        s.Filter(),
		PreserveOrder: s.preserveOrder,
	}
}

// settingsFile is the YAML shape of a settings file.
type settingsFile struct {
	DefaultLayout       map[string]any `yaml:"defaultLayout"`
	SampleSize          int            `yaml:"sampleSize"`
	Filter              *sample.Filter `yaml:"filter"`
	ScreenWidth         int            `yaml:"screenWidth"`
	PreserveSampleOrder bool           `yaml:"preserveSampleOrder"`
}

// ParseSettings decodes YAML settings on top of DefaultSettings.
func ParseSettings(b []byte) (Settings, error) {
	var f settingsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	s := DefaultSettings().
		WithDefaultLayout(f.DefaultLayout).
		WithSampleSize(f.SampleSize).
		WithFilter(f.Filter).
		WithPreserveSampleOrder(f.PreserveSampleOrder)
	if f.ScreenWidth > 0 {
		s = s.WithScreenWidth(f.ScreenWidth)
	}
	return s, nil
}

// LoadSettings reads a YAML settings file. An empty path yields
// DefaultSettings.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(b)
}
