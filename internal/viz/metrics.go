package viz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// chartBuilds counts chart builds.
	// Labels: chart (chart kind), status (ok, error)
	chartBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simviz",
		Subsystem: "charts",
		Name:      "builds_total",
		Help:      "Total chart builds by kind and outcome",
	}, []string{"chart", "status"})

	// chartBuildLatency measures the time to build one visualization.
	// Labels: chart
	chartBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "simviz",
		Subsystem: "charts",
		Name:      "build_seconds",
		Help:      "Chart build latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"chart"})

	// degradedTraces counts traces emptied because their data was missing
	// or malformed.
	// Labels: chart
	degradedTraces = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simviz",
		Subsystem: "charts",
		Name:      "degraded_traces_total",
		Help:      "Total traces degraded to empty series",
	}, []string{"chart"})

	// renders counts visualizations pushed to display targets.
	// Labels: status (ok, error, skipped)
	renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "simviz",
		Subsystem: "display",
		Name:      "renders_total",
		Help:      "Total renders to display targets",
	}, []string{"status"})
)
