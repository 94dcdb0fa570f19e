// Package metrics exposes Prometheus collectors for the site service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh results recorded by ObserveRedirectRefresh.
const (
	RefreshSuccess = "success"
	RefreshFailure = "failure"
)

// Decision outcomes recorded by ObserveRedirectDecision.
const (
	DecisionRedirect = "redirect"
	DecisionMiss     = "miss"
)

// Contact submission results recorded by ObserveContactSubmission.
const (
	ContactAccepted    = "accepted"
	ContactInvalid     = "invalid"
	ContactRateLimited = "rate_limited"
	ContactFailed      = "failed"
)

var (
	httpRequestsTotal            *prometheus.CounterVec
	httpRequestDurationSeconds   *prometheus.HistogramVec
	redirectRefreshTotal         *prometheus.CounterVec
	redirectRefreshDuration      prometheus.Histogram
	redirectRulesLoaded          prometheus.Gauge
	redirectRowsSkippedTotal     prometheus.Counter
	redirectDecisionsTotal       *prometheus.CounterVec
	redirectSnapshotAgeSeconds   prometheus.Gauge
	contactSubmissionsTotal      *prometheus.CounterVec
	sitemapPublishedTimestampSec prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		redirectRefreshTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirect_refresh_total",
				Help: "Total redirect snapshot refresh attempts, labeled by result.",
			},
			[]string{"result"},
		)

		redirectRefreshDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "redirect_refresh_duration_seconds",
				Help:    "Histogram of redirect rule fetch durations.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 3},
			},
		)

		redirectRulesLoaded = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "redirect_rules_loaded",
				Help: "Number of redirect rules in the active snapshot.",
			},
		)

		redirectRowsSkippedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "redirect_rows_skipped_total",
				Help: "Malformed or duplicate redirect rows dropped while building a snapshot.",
			},
		)

		redirectDecisionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "redirect_decisions_total",
				Help: "Total redirect lookups, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		redirectSnapshotAgeSeconds = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "redirect_snapshot_refreshed_timestamp_seconds",
				Help: "Unix time of the last successful redirect snapshot refresh.",
			},
		)

		contactSubmissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contact_submissions_total",
				Help: "Total contact form submissions, labeled by result.",
			},
			[]string{"result"},
		)

		sitemapPublishedTimestampSec = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "sitemap_published_timestamp_seconds",
				Help: "Unix time the sitemap was last published to the blob store.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRedirectRefresh records one refresh attempt and its fetch latency.
func ObserveRedirectRefresh(result string, duration time.Duration) {
	Init()
	redirectRefreshTotal.WithLabelValues(result).Inc()
	redirectRefreshDuration.Observe(duration.Seconds())
}

// SetRedirectSnapshot records the size and time of a freshly installed snapshot.
func SetRedirectSnapshot(rules int, at time.Time) {
	Init()
	redirectRulesLoaded.Set(float64(rules))
	redirectSnapshotAgeSeconds.Set(float64(at.Unix()))
}

// AddRedirectRowsSkipped counts rows dropped during snapshot construction.
func AddRedirectRowsSkipped(n int) {
	if n <= 0 {
		return
	}
	Init()
	redirectRowsSkippedTotal.Add(float64(n))
}

// ObserveRedirectDecision increments the decision counter.
func ObserveRedirectDecision(outcome string) {
	Init()
	redirectDecisionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveContactSubmission increments the contact submission counter.
func ObserveContactSubmission(result string) {
	Init()
	contactSubmissionsTotal.WithLabelValues(result).Inc()
}

// SetSitemapPublished records when the sitemap was last uploaded.
func SetSitemapPublished(at time.Time) {
	Init()
	sitemapPublishedTimestampSec.Set(float64(at.Unix()))
}
