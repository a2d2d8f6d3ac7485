// Package sample thins large logs before they are plotted.
package sample

import (
	"sort"

	"github.com/ndrandal/simviz/internal/random"
	"github.com/ndrandal/simviz/internal/table"
)

// Filter narrows a log to rows whose Prop column lies in [FromValue, ToValue].
// A filter with an empty Prop is ignored.
type Filter struct {
	Prop      string  `json:"prop" yaml:"prop"`
	FromValue float64 `json:"fromValue" yaml:"fromValue"`
	ToValue   float64 `json:"toValue" yaml:"toValue"`
}

// Options controls one extraction.
type Options struct {
	// Size is the maximum number of data rows kept. Zero or negative
	// disables sampling.
	Size   int
	Filter *Filter
	// PreserveOrder keeps sampled rows in their original order instead of
	// the order they were drawn in.
	PreserveOrder bool
}

// Sampler draws random row subsets. It is safe for concurrent use.
type Sampler struct {
	rng *random.RNG
}

// New creates a sampler. Seed 0 seeds from the clock.
func New(seed int64) *Sampler {
	return &Sampler{rng: random.New(seed)}
}

// NewWithRNG creates a sampler that draws from rng.
func NewWithRNG(rng *random.RNG) *Sampler {
	return &Sampler{rng: rng}
}

// Sample returns data unchanged when it has no more than size rows after
// the header. Otherwise it returns a copy of the header followed by size
// rows drawn without replacement.
func (s *Sampler) Sample(data table.Data, opts Options) table.Data {
	if opts.Size <= 0 || len(data)-1 <= opts.Size {
		return data
	}
	rows := data[1:]
	idx := s.rng.SampleIndexes(len(rows), opts.Size)
	if opts.PreserveOrder {
		sort.Ints(idx)
	}
	header := append(table.Row(nil), data[0]...)
	out := make(table.Data, 0, len(idx)+1)
	out = append(out, header)
	for _, i := range idx {
		out = append(out, rows[i])
	}
	return out
}

// Extract applies the filter, when the source supports it, and then
// samples.
func (s *Sampler) Extract(src table.Source, opts Options) table.Data {
	if src == nil {
		return nil
	}
	if f := opts.Filter; f != nil && f.Prop != "" {
		if sel, ok := src.(table.Selector); ok {
			return s.Sample(sel.SelectAscending(f.Prop, f.FromValue, f.ToValue), opts)
		}
	}
	return s.Sample(src.Data(), opts)
}
