package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects the application's Prometheus series.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	salesCompleted  prometheus.Counter
	barterFinalized prometheus.Counter
	loginFailures   prometheus.Counter
	shortagesOpen   prometheus.Gauge
}

// NewMetrics initialises the registry and base series.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "helios_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "helios_http_request_duration_seconds",
		Help:    "HTTP request latency per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	sales := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helios_sales_completed_total",
		Help: "POS checkouts persisted.",
	})
	barter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helios_barter_finalized_total",
		Help: "Barter settlements finalized.",
	})
	logins := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "helios_login_failures_total",
		Help: "Rejected login attempts.",
	})
	shortages := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "helios_shortages_open",
		Help: "Shortage requests not yet received.",
	})
	registry.MustRegister(requests, duration, sales, barter, logins, shortages)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		salesCompleted:  sales,
		barterFinalized: barter,
		loginFailures:   logins,
		shortagesOpen:   shortages,
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

// SaleCompleted increments the checkout counter.
func (m *Metrics) SaleCompleted() {
	if m == nil {
		return
	}
	m.salesCompleted.Inc()
}

// BarterFinalized increments the settlement counter.
func (m *Metrics) BarterFinalized() {
	if m == nil {
		return
	}
	m.barterFinalized.Inc()
}

// LoginFailed increments the rejected-login counter.
func (m *Metrics) LoginFailed() {
	if m == nil {
		return
	}
	m.loginFailures.Inc()
}

// SetOpenShortages records the current number of unreceived shortage requests.
func (m *Metrics) SetOpenShortages(n int) {
	if m == nil {
		return
	}
	m.shortagesOpen.Set(float64(n))
}

// Registerer exposes the registry for module-specific metrics.
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
