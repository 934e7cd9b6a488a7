// Package metrics holds the engine's prometheus collectors. They live on a
// private registry so tests and multiple engines in one process do not
// collide on the default one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	ListingsFetched   *prometheus.CounterVec
	ListingsFiltered  *prometheus.CounterVec
	ListingsScored    prometheus.Counter
	Score             prometheus.Histogram
	Applications      *prometheus.CounterVec
	ApplicationsToday prometheus.Gauge
	Runs              *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	SourceErrors      *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ListingsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobapply_listings_fetched_total",
			Help: "Listings returned by sources, before filtering.",
		}, []string{"source"}),
		ListingsFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobapply_listings_filtered_total",
			Help: "Listings dropped by pre-scoring filters.",
		}, []string{"reason"}),
		ListingsScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jobapply_listings_scored_total",
			Help: "Listings run through the score engine.",
		}),
		Score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobapply_listing_score",
			Help:    "Distribution of listing scores on the 0-10 scale.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
		Applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobapply_applications_total",
			Help: "Application attempts by outcome.",
		}, []string{"status"}),
		ApplicationsToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jobapply_applications_today",
			Help: "Live applications submitted today.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobapply_runs_total",
			Help: "Pipeline runs by trigger and result.",
		}, []string{"trigger", "result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jobapply_run_duration_seconds",
			Help:    "Wall time of pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		SourceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobapply_source_errors_total",
			Help: "Source fetch failures.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ListingsFetched, m.ListingsFiltered, m.ListingsScored, m.Score,
		m.Applications, m.ApplicationsToday, m.Runs, m.RunDuration, m.SourceErrors,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
