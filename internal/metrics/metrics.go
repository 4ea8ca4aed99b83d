package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors exported on /metrics.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	registration *prometheus.CounterVec
	logins       *prometheus.CounterVec
	applications *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptracker",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "apptracker",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "apptracker",
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		registration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptracker",
			Name:      "registrations_total",
			Help:      "Registration attempts by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptracker",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		applications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "apptracker",
			Name:      "application_writes_total",
			Help:      "Successful application writes by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(m.requests, m.duration, m.inFlight, m.registration, m.logins, m.applications)
	return m
}

// Middleware records request count, latency and in-flight requests. The route
// label is echo's path template so ids do not explode cardinality.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			err := next(c)

			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Registration records a registration outcome ("created", "conflict", "invalid", "error").
func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registration.WithLabelValues(result).Inc()
}

// Login records a login outcome ("ok", "rejected", "invalid", "error").
func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
}

// ApplicationWrite records a successful create, update or delete.
func (m *Metrics) ApplicationWrite(op string) {
	if m == nil {
		return
	}
	m.applications.WithLabelValues(op).Inc()
}
