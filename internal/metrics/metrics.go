// Package metrics provides Prometheus metrics for the document
// pipeline, index, watcher, and server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Parsing metrics
	FilesParsedTotal     prometheus.Counter
	ElementsParsedTotal  prometheus.Counter
	ParseFailuresTotal   prometheus.Counter
	ParseDurationSeconds prometheus.Histogram

	// Index metrics
	IndexOperationsTotal *prometheus.CounterVec
	IndexedElements      prometheus.Gauge
	IndexedReferences    prometheus.Gauge

	// Search metrics
	SearchQueriesTotal prometheus.Counter
	SearchResultsTotal prometheus.Counter

	// Watcher metrics
	WatcherEventsTotal *prometheus.CounterVec
	WatcherScansTotal  prometheus.Counter

	// Tool call metrics
	ToolCallsTotal *prometheus.CounterVec

	StartTime time.Time
}

// New creates all metrics on the given registerer. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{StartTime: time.Now()}

	m.FilesParsedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_files_parsed_total",
		Help: "Total number of markdown files parsed",
	})
	m.ElementsParsedTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_elements_parsed_total",
		Help: "Total number of document elements assembled",
	})
	m.ParseFailuresTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_parse_failures_total",
		Help: "Total number of headings skipped due to assembly failures",
	})
	m.ParseDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "specdex_parse_duration_seconds",
		Help:    "Duration of single-file parses in seconds",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	m.IndexOperationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "specdex_index_operations_total",
		Help: "Total number of index mutations",
	}, []string{"operation", "status"})
	m.IndexedElements = factory.NewGauge(prometheus.GaugeOpts{
		Name: "specdex_indexed_elements",
		Help: "Number of elements currently indexed",
	})
	m.IndexedReferences = factory.NewGauge(prometheus.GaugeOpts{
		Name: "specdex_indexed_references",
		Help: "Number of forward reference edges currently indexed",
	})

	m.SearchQueriesTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_search_queries_total",
		Help: "Total number of search queries",
	})
	m.SearchResultsTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_search_results_total",
		Help: "Total number of search results returned",
	})

	m.WatcherEventsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "specdex_watcher_events_total",
		Help: "Total number of file events observed",
	}, []string{"type"})
	m.WatcherScansTotal = factory.NewCounter(prometheus.CounterOpts{
		Name: "specdex_watcher_scans_total",
		Help: "Total number of watcher poll scans",
	})

	m.ToolCallsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "specdex_tool_calls_total",
		Help: "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	return m
}

// Default creates metrics on the default Prometheus registry.
func Default() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

// ObserveIndex updates the index gauges from current counts.
func (m *Metrics) ObserveIndex(elements, references int) {
	m.IndexedElements.Set(float64(elements))
	m.IndexedReferences.Set(float64(references))
}
