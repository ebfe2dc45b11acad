package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus instruments exported by the service.
// Each collector owns its registry so tests can build as many as they need.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests       *prometheus.CounterVec
	Analyses           *prometheus.CounterVec
	AnalysisDuration   prometheus.Histogram
	SuggestionsDropped prometheus.Counter
}

// NewCollector registers all instruments under the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Profile analyses by outcome",
			},
			[]string{"outcome"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Wall time of a profile analysis including the provider call",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 40, 60, 120},
			},
		),
		SuggestionsDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "suggestions_dropped_total",
				Help:      "Suggestions discarded because their url was not absolute http(s)",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.Analyses,
		c.AnalysisDuration,
		c.SuggestionsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveAnalysis records one finished analysis.
func (c *Collector) ObserveAnalysis(outcome string, elapsed time.Duration, dropped int) {
	if c == nil {
		return
	}
	c.Analyses.WithLabelValues(outcome).Inc()
	c.AnalysisDuration.Observe(elapsed.Seconds())
	if dropped > 0 {
		c.SuggestionsDropped.Add(float64(dropped))
	}
}

// ObserveRequest records one served HTTP request.
func (c *Collector) ObserveRequest(method, route, status string) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
