package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects search metrics for production monitoring.
//
// Metrics exposed (all namespaced with "paladinus_"):
//
// 1. node_expansions_total (counter): Node expansions across all runs.
// Use: Throughput of the search.
//
// 2. search_rounds_total (counter): Bound escalation rounds.
// Use: Detect problems that need many rounds to converge.
//
// 3. current_bound (gauge): Bound of the round in progress.
//
// 4. graph_nodes (gauge): Nodes in the graph of the latest run.
//
// 5. dead_ends_total (counter): Nodes proven to be dead ends.
//
// 6. search_duration_ms (histogram): Run duration in milliseconds.
// Labels: result (PROVEN, DISPROVEN, TIMEOUT).
// Buckets: [1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000].
//
// 7. results_total (counter): Run verdicts.
// Labels: result.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine, err := graph.New(problem, h, graph.WithMetrics(metrics))
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: one collector may be shared by the engines of SolveAll.
type PrometheusMetrics struct {
	expansions   prometheus.Counter
	rounds       prometheus.Counter
	deadEnds     prometheus.Counter
	currentBound prometheus.Gauge
	graphNodes   prometheus.Gauge
	duration     *prometheus.HistogramVec
	results      *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers all search metrics with the
// provided registry. A nil registry means prometheus.DefaultRegisterer.
//
// Registering twice on the same registry panics, as promauto does; use a
// fresh prometheus.NewRegistry() per collector in tests.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.expansions = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "paladinus",
		Name:      "node_expansions_total",
		Help:      "Number of node expansions performed by the search",
	})

	pm.rounds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "paladinus",
		Name:      "search_rounds_total",
		Help:      "Number of bound escalation rounds started",
	})

	pm.currentBound = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "paladinus",
		Name:      "current_bound",
		Help:      "Policy size bound of the round in progress",
	})

	pm.graphNodes = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "paladinus",
		Name:      "graph_nodes",
		Help:      "Number of nodes in the AND-OR graph of the latest run",
	})

	pm.deadEnds = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "paladinus",
		Name:      "dead_ends_total",
		Help:      "Number of nodes proven to be dead ends",
	})

	pm.duration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paladinus",
		Name:      "search_duration_ms",
		Help:      "Search run duration in milliseconds",
		Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
	}, []string{"result"})

	pm.results = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paladinus",
		Name:      "results_total",
		Help:      "Search verdicts by result",
	}, []string{"result"})

	return pm
}

func (pm *PrometheusMetrics) on() bool {
	if pm == nil {
		return false
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// IncrementExpansions counts one node expansion.
func (pm *PrometheusMetrics) IncrementExpansions() {
	if !pm.on() {
		return
	}
	pm.expansions.Inc()
}

// IncrementDeadEnds counts one node proven to be a dead end.
func (pm *PrometheusMetrics) IncrementDeadEnds() {
	if !pm.on() {
		return
	}
	pm.deadEnds.Inc()
}

// StartRound counts a round and publishes its bound. An infinite bound is
// published as +Inf.
func (pm *PrometheusMetrics) StartRound(bound float64) {
	if !pm.on() {
		return
	}
	pm.rounds.Inc()
	pm.currentBound.Set(bound)
}

// UpdateGraphNodes publishes the size of the graph.
func (pm *PrometheusMetrics) UpdateGraphNodes(count int) {
	if !pm.on() {
		return
	}
	pm.graphNodes.Set(float64(count))
}

// RecordResult records a run verdict and its duration.
//
// Example:
//
//	start := time.Now()
//	result := search()
//	metrics.RecordResult(result.String(), time.Since(start))
func (pm *PrometheusMetrics) RecordResult(result string, elapsed time.Duration) {
	if !pm.on() {
		return
	}
	pm.results.WithLabelValues(result).Inc()
	pm.duration.WithLabelValues(result).Observe(float64(elapsed.Milliseconds()))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

// Reset clears the gauges. Counters and histograms are cumulative and keep
// their values.
func (pm *PrometheusMetrics) Reset() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.currentBound.Set(0)
	pm.graphNodes.Set(0)
}
