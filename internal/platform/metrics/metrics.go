package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tour",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
	}, []string{"method", "path"})

	// RoutingRequests counts directions calls per travel mode and outcome (ok, no_route, error).
	RoutingRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "routing",
		Name:      "requests_total",
		Help:      "Routing service requests by travel mode and outcome",
	}, []string{"mode", "outcome"})

	SegmentFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tour",
		Subsystem: "routing",
		Name:      "segment_fetch_duration_seconds",
		Help:      "Duration of a full segment fetch across the mode preference list",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})

	NavigationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "navigation",
		Name:      "events_total",
		Help:      "Navigation events emitted by kind",
	}, []string{"kind"})

	// NarrationOutcomes counts finished utterances by outcome (done, stopped, failed).
	NarrationOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tour",
		Subsystem: "navigation",
		Name:      "narrations_total",
		Help:      "Narration results by outcome",
	}, []string{"outcome"})

	ActiveTours = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tour",
		Subsystem: "navigation",
		Name:      "active_tours",
		Help:      "Navigation sessions currently running",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics labelled by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the Prometheus /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
