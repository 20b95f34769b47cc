package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	journalPosted   prometheus.Counter
	journalReversed prometheus.Counter
	integrityAlerts prometheus.Counter
	balanceDrift    prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_journal_entries_posted_total",
		Help: "Journal entries posted.",
	})
	reversed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_journal_entries_reversed_total",
		Help: "Journal entries reversed.",
	})
	integrity := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_integrity_alerts_total",
		Help: "Reports observed with unequal debit and credit totals.",
	})
	drift := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_balance_drift_total",
		Help: "Accounts whose cached balance disagreed with posted history at rebuild.",
	})
	registry.MustRegister(requests, duration, posted, reversed, integrity, drift)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		journalPosted:   posted,
		journalReversed: reversed,
		integrityAlerts: integrity,
		balanceDrift:    drift,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// JournalPosted counts a successful posting.
func (m *Metrics) JournalPosted() {
	if m != nil {
		m.journalPosted.Inc()
	}
}

// JournalReversed counts a successful reversal.
func (m *Metrics) JournalReversed() {
	if m != nil {
		m.journalReversed.Inc()
	}
}

// IntegrityAlert counts an out-of-balance report.
func (m *Metrics) IntegrityAlert() {
	if m != nil {
		m.integrityAlerts.Inc()
	}
}

// BalanceDrift counts accounts corrected during a balance rebuild.
func (m *Metrics) BalanceDrift(n int) {
	if m != nil && n > 0 {
		m.balanceDrift.Add(float64(n))
	}
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
