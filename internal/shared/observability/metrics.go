package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archcheck_parsing_seconds",
		Help:    "Time spent parsing one class unit.",
		Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	UnitsParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_units_parsed_total",
		Help: "Total number of class units parsed.",
	})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_parse_errors_total",
		Help: "Total number of class units that failed to parse.",
	})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archcheck_graph_nodes",
		Help: "Number of nodes in the last analyzed dependency graph.",
	}, []string{"granularity"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archcheck_graph_edges",
		Help: "Number of edges in the last analyzed dependency graph.",
	}, []string{"granularity"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archcheck_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	Violations = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "archcheck_violations",
		Help: "Violations found by the last check run, by kind.",
	}, []string{"kind"})

	CheckRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archcheck_check_runs_total",
		Help: "Total number of check runs, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatchRunsThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_watch_runs_throttled_total",
		Help: "Total number of watch-triggered runs delayed by the rate limiter.",
	})
)
