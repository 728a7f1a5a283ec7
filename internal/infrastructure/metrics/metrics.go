package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "loan_origination",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loan_origination",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loan_origination",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loan_origination",
			Subsystem: "applications",
			Name:      "status_transitions_total",
			Help:      "Committed loan application status transitions.",
		},
		[]string{"from", "to"},
	)

	transitionRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loan_origination",
			Subsystem: "applications",
			Name:      "status_update_failures_total",
			Help:      "Status updates refused, by error kind.",
		},
		[]string{"kind"},
	)

	taskRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "loan_origination",
			Subsystem: "tasks",
			Name:      "runs_total",
			Help:      "Async task executions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "loan_origination",
			Subsystem: "tasks",
			Name:      "run_duration_seconds",
			Help:      "Duration of async task handlers.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		statusTransitions,
		transitionRejections,
		taskRuns,
		taskDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency keyed by the route template,
// so /applications/:application_id stays one series.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}
			httpInFlight.Inc()
			defer httpInFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			method := c.Request().Method
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Response().Status)).Inc()
			httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

func RecordTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func RecordTransitionFailure(kind string) {
	transitionRejections.WithLabelValues(kind).Inc()
}

func RecordTask(kind, outcome string, elapsed time.Duration) {
	taskRuns.WithLabelValues(kind, outcome).Inc()
	taskDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
