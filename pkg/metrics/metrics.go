// Package metrics defines the Prometheus metric collectors used across the
// indexing pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the indexer.
type Metrics struct {
	DocsIndexedTotal    prometheus.Counter
	DocsFailedTotal     *prometheus.CounterVec
	FieldsAnalyzedTotal *prometheus.CounterVec
	AnalyzeDuration     *prometheus.HistogramVec
	TermsEmittedTotal   *prometheus.CounterVec
	StoreCommitDuration *prometheus.HistogramVec
	StoreErrorsTotal    prometheus.Counter
	LookupHitsTotal     prometheus.Counter
	LookupMissesTotal   prometheus.Counter
	ConsumerLagSeconds  prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docs_indexed_total",
				Help: "Total number of documents successfully indexed.",
			},
		),
		DocsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docs_failed_total",
				Help: "Total number of documents that failed indexing, by reason (schema, store, decode).",
			},
			[]string{"reason"},
		),
		FieldsAnalyzedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fields_analyzed_total",
				Help: "Total number of field passes through an analyzer chain, by field name.",
			},
			[]string{"field"},
		),
		AnalyzeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyze_duration_seconds",
				Help:    "Time spent running one field's analyzer chain.",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"field"},
		),
		TermsEmittedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terms_emitted_total",
				Help: "Total tokens committed to the store, by bin (term, posting, keyword, attribute, spelling).",
			},
			[]string{"bin"},
		),
		StoreCommitDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_commit_duration_seconds",
				Help:    "Time spent committing one document to the store backend.",
				Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"backend"},
		),
		StoreErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "store_errors_total",
				Help: "Total number of store adapter failures.",
			},
		),
		LookupHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lookup_cache_hits_total",
				Help: "Total number of lookup-table cache hits.",
			},
		),
		LookupMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lookup_cache_misses_total",
				Help: "Total number of lookup-table cache misses.",
			},
		),
		ConsumerLagSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "consumer_lag_seconds",
				Help: "Age of the most recently processed ingest event.",
			},
		),
	}

	prometheus.MustRegister(
		m.DocsIndexedTotal,
		m.DocsFailedTotal,
		m.FieldsAnalyzedTotal,
		m.AnalyzeDuration,
		m.TermsEmittedTotal,
		m.StoreCommitDuration,
		m.StoreErrorsTotal,
		m.LookupHitsTotal,
		m.LookupMissesTotal,
		m.ConsumerLagSeconds,
	)
	return m
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
