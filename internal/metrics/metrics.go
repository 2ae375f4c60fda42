package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoquiz_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videoquiz_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// AuthEventsTotal counts signup/login/logout/refresh outcomes.
	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoquiz_auth_events_total",
			Help: "Authentication events by kind and outcome",
		},
		[]string{"event", "outcome"},
	)

	VideosCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videoquiz_videos_created_total",
			Help: "Total number of videos created",
		},
	)

	AnswerSubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "videoquiz_answer_submissions_total",
			Help: "Total number of accepted answer submissions",
		},
	)

	StatsCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videoquiz_stats_cache_requests_total",
			Help: "Stats cache lookups by backend and result (hit/miss)",
		},
		[]string{"backend", "result"},
	)

	LiveSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "videoquiz_live_subscribers",
			Help: "Current number of live dashboard subscribers",
		},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordAuthEvent records the outcome of an authentication operation.
func RecordAuthEvent(event string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	AuthEventsTotal.WithLabelValues(event, outcome).Inc()
}

// RecordCacheLookup records a stats cache hit or miss.
func RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	StatsCacheRequests.WithLabelValues(backend, result).Inc()
}
