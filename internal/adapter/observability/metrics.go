package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"route", "method"},
	)

	DBConnectionsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techtrends_db_connections_opened_total",
			Help: "Total number of store connections opened since process start",
		},
	)
	DBOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "techtrends_db_operations_total",
			Help: "Total number of post repository operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "techtrends_db_operation_duration_seconds",
			Help:    "Post repository operation duration in seconds, connection open and close included",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"operation"},
	)

	PostsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techtrends_posts_created_total",
			Help: "Total number of posts created through the create form",
		},
	)
	PostValidationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "techtrends_post_validation_failures_total",
			Help: "Total number of rejected create form submissions",
		},
	)
)

// UnmatchedRoute is the route label for requests that matched no route.
const UnmatchedRoute = "unmatched"

var initOnce sync.Once

// InitMetrics registers all collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(DBConnectionsOpenedTotal)
		prometheus.MustRegister(DBOperationsTotal)
		prometheus.MustRegister(DBOperationDuration)
		prometheus.MustRegister(PostsCreatedTotal)
		prometheus.MustRegister(PostValidationFailuresTotal)
	})
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		route := UnmatchedRoute
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// ObserveDBOperation records the outcome and latency of a repository call.
func ObserveDBOperation(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DBOperationsTotal.WithLabelValues(operation, outcome).Inc()
	DBOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
