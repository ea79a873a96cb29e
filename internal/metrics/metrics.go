package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Sweep metrics
	SweepRuns       *prometheus.CounterVec
	SweepFollowUps  *prometheus.CounterVec
	SweepDuration   prometheus.Histogram
	SweepUnentitled prometheus.Counter
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "followup_sweep_runs_total",
				Help: "Delivery sweep runs by result",
			},
			[]string{"result"}, // ok, failed, locked
		),
		SweepFollowUps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "followup_sweep_follow_ups_total",
				Help: "Follow-ups handled by the delivery sweep, by outcome",
			},
			[]string{"outcome"}, // sent, rate_limited, already_processed, failed
		),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "followup_sweep_duration_seconds",
			Help:    "Delivery sweep run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
		SweepUnentitled: factory.NewCounter(prometheus.CounterOpts{
			Name: "followup_sweep_unentitled_total",
			Help: "Due follow-ups excluded because the account is not entitled to automated delivery",
		}),
	}
}

// ObserveSweep records a run's duration
func (m *Metrics) ObserveSweep(result string, started time.Time) {
	m.SweepRuns.WithLabelValues(result).Inc()
	m.SweepDuration.Observe(time.Since(started).Seconds())
}

// Middleware records request counts and latency keyed by the matched route template
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
