package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wardflow/wardflow/internal/platform/apperror"
)

// Collector holds the service's prometheus instruments.
type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AdmissionsTotal *prometheus.CounterVec
	VisitsTotal     *prometheus.CounterVec
}

// NewCollector creates and registers the collectors on a private registry so
// repeated construction in tests does not panic on duplicate registration.
func NewCollector(serviceName string) (*Collector, *prometheus.Registry) {
	reg := prometheus.NewRegistry()

	c := &Collector{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "ward",
			Name:      "admissions_total",
			Help:      "Admission operations by outcome (admitted, discharged, conflict).",
		}, []string{"outcome"}),

		VisitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "ward",
			Name:      "visits_total",
			Help:      "Visit registrations and transitions by resulting status.",
		}, []string{"status"}),
	}

	reg.MustRegister(c.RequestsTotal, c.RequestDuration, c.AdmissionsTotal, c.VisitsTotal)
	return c, reg
}

// Middleware records request counts and latencies per route.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()
			err := next(ec)

			// On error the handler has not written yet; the response still
			// reports the default 200. Derive the status the error will map to.
			code := ec.Response().Status
			if err != nil && !ec.Response().Committed {
				code = apperror.StatusOf(err)
			}
			status := strconv.Itoa(code)
			path := ec.Path()
			if path == "" {
				path = ec.Request().URL.Path
			}
			method := ec.Request().Method

			c.RequestsTotal.WithLabelValues(method, path, status).Inc()
			c.RequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the registry in prometheus text format.
func Handler(reg *prometheus.Registry) echo.HandlerFunc {
	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
