// Package metrics provides Prometheus metrics for the search API
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Search metrics
	SearchQueriesTotal      *prometheus.CounterVec
	HighlightFallbacksTotal prometheus.Counter
	SuggestionsTotal        *prometheus.CounterVec

	// Indexing metrics
	IndexedDocumentsTotal *prometheus.CounterVec
	ReindexDuration       prometheus.Histogram

	// History metrics
	HistoryWritesTotal *prometheus.CounterVec
}

// New creates all collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{gatherer: reg}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kavosh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kavosh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	m.SearchQueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kavosh_search_queries_total",
			Help: "Total number of compiled search queries by outcome",
		},
		[]string{"outcome"},
	)
	m.HighlightFallbacksTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "kavosh_highlight_fallbacks_total",
			Help: "Searches reissued with the fuzzy highlight scope",
		},
	)
	m.SuggestionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kavosh_suggestions_total",
			Help: "Total number of suggestion requests by outcome",
		},
		[]string{"outcome"},
	)

	m.IndexedDocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kavosh_indexed_documents_total",
			Help: "Documents processed by reindex passes by result",
		},
		[]string{"result"},
	)
	m.ReindexDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kavosh_reindex_duration_seconds",
			Help:    "Duration of full reindex passes in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	m.HistoryWritesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kavosh_history_writes_total",
			Help: "Search history recording attempts by outcome",
		},
		[]string{"outcome"},
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

func (m *Metrics) ObserveSearch(outcome string, fallback bool) {
	if m == nil {
		return
	}
	m.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	if fallback {
		m.HighlightFallbacksTotal.Inc()
	}
}

func (m *Metrics) ObserveSuggestion(outcome string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveIndexed(result string) {
	if m == nil {
		return
	}
	m.IndexedDocumentsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReindex(duration time.Duration) {
	if m == nil {
		return
	}
	m.ReindexDuration.Observe(duration.Seconds())
}

func (m *Metrics) ObserveHistory(outcome string) {
	if m == nil {
		return
	}
	m.HistoryWritesTotal.WithLabelValues(outcome).Inc()
}
