// Package metrics exposes Prometheus collectors for the news pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal                 *prometheus.CounterVec
	fetchInFlight              prometheus.Gauge
	fetchBytesTotal            *prometheus.CounterVec
	linksDiscoveredTotal       *prometheus.CounterVec
	queueItemsTotal            *prometheus.CounterVec
	parseTotal                 *prometheus.CounterVec
	parseDurationSeconds       prometheus.Histogram
	articlesSavedTotal         *prometheus.CounterVec
	activeWorkers              prometheus.Gauge
	crawlDurationSeconds       prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_fetch_total",
				Help: "Total number of page fetches, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		fetchInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "newscrawler_fetch_in_flight",
				Help: "Number of page fetches currently holding a concurrency slot.",
			},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		linksDiscoveredTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_links_discovered_total",
				Help: "Article links discovered on listing pages, labeled by listing site.",
			},
			[]string{"site"},
		)

		queueItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_queue_items_total",
				Help: "Queue transitions, labeled by event (enqueued, dequeued, acked).",
			},
			[]string{"event"},
		)

		parseTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_parse_total",
				Help: "Article pages parsed, labeled by outcome (parsed, failed).",
			},
			[]string{"status"},
		)

		parseDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "newscrawler_parse_duration_seconds",
				Help:    "Histogram of article parse durations.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		)

		articlesSavedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "newscrawler_articles_saved_total",
				Help: "Article save attempts, labeled by outcome (saved, error). Duplicate URLs are no-ops and count as saved.",
			},
			[]string{"status"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "newscrawler_active_workers",
				Help: "Number of parse workers whose run loop is active.",
			},
		)

		crawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "newscrawler_crawl_duration_seconds",
				Help:    "Histogram of full crawl run durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObserveFetch records a completed fetch attempt.
func ObserveFetch(site, status string, bytesFetched int) {
	Init()
	sanitized := SanitizeSite(site)
	fetchTotal.WithLabelValues(sanitized, status).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitized).Add(float64(bytesFetched))
	}
}

// IncFetchInFlight marks a fetch as holding a concurrency slot.
func IncFetchInFlight() {
	Init()
	fetchInFlight.Inc()
}

// DecFetchInFlight releases a fetch slot in the gauge.
func DecFetchInFlight() {
	Init()
	fetchInFlight.Dec()
}

// ObserveLinksDiscovered counts article links found under a listing root.
func ObserveLinksDiscovered(listingURL string, n int) {
	Init()
	if n <= 0 {
		return
	}
	linksDiscoveredTotal.WithLabelValues(SanitizeSite(listingURL)).Add(float64(n))
}

// ObserveQueue records a queue event such as "enqueued" or "acked".
func ObserveQueue(event string) {
	Init()
	queueItemsTotal.WithLabelValues(event).Inc()
}

// ObserveParse records the outcome and duration of one parse.
func ObserveParse(status string, duration time.Duration) {
	Init()
	parseTotal.WithLabelValues(status).Inc()
	parseDurationSeconds.Observe(duration.Seconds())
}

// ObserveSave records the outcome of one article save.
func ObserveSave(status string) {
	Init()
	articlesSavedTotal.WithLabelValues(status).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	Init()
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	Init()
	activeWorkers.Dec()
}

// ObserveCrawlDuration records how long a full pipeline run took.
func ObserveCrawlDuration(duration time.Duration) {
	Init()
	crawlDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
