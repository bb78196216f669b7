package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg               *prometheus.Registry
	Normalized        prometheus.Counter
	Skipped           prometheus.Counter
	DatesSynthesized  prometheus.Counter
	FetchFailures     prometheus.Counter
	ChangelogAppended prometheus.Counter
	ViewRecords       prometheus.Gauge
	ComputeSec        prometheus.Histogram
	Requests          *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	normalized := prometheus.NewCounter(prometheus.CounterOpts{Name: "salesstats_records_normalized_total"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{Name: "salesstats_records_skipped_total"})
	synthesized := prometheus.NewCounter(prometheus.CounterOpts{Name: "salesstats_dates_synthesized_total"})
	fetchFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "salesstats_fetch_failures_total"})
	changelogAppended := prometheus.NewCounter(prometheus.CounterOpts{Name: "salesstats_changelog_appended_total"})
	viewRecords := prometheus.NewGauge(prometheus.GaugeOpts{Name: "salesstats_view_records"})
	computeSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "salesstats_compute_seconds",
		Buckets: prometheus.DefBuckets,
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "salesstats_http_requests_total"}, []string{"route", "code"})

	r.MustRegister(normalized, skipped, synthesized, fetchFailures, changelogAppended, viewRecords, computeSec, requests)
	return &Registry{
		reg:               r,
		Normalized:        normalized,
		Skipped:           skipped,
		DatesSynthesized:  synthesized,
		FetchFailures:     fetchFailures,
		ChangelogAppended: changelogAppended,
		ViewRecords:       viewRecords,
		ComputeSec:        computeSec,
		Requests:          requests,
	}
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
