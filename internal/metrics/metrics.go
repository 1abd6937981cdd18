package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ukydev/fleet-fuel/internal/models"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Fuel-stock metrics
	CalculationsTotal      *prometheus.CounterVec
	CalculationWarnings    *prometheus.CounterVec
	InventoryPointsCreated *prometheus.CounterVec
	FuelEventsConsumed     *prometheus.CounterVec
	MonthlyCloseRuns       *prometheus.CounterVec
}

// New creates a Metrics instance registered on its own registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CalculationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuel_calculations_total",
			Help:      "Fuel stock calculations by kind and outcome",
		}, []string{"kind", "outcome"}),
		CalculationWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuel_calculation_warnings_total",
			Help:      "Warnings attached to fuel stock calculations",
		}, []string{"kind"}),
		InventoryPointsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuel_inventory_points_created_total",
			Help:      "Fuel inventory reference points created by source",
		}, []string{"source"}),
		FuelEventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fuel_events_consumed_total",
			Help:      "Fuel record events consumed from MQTT by result",
		}, []string{"result"}),
		MonthlyCloseRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monthly_close_reports_total",
			Help:      "Monthly close reports by result",
		}, []string{"result"}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CalculationsTotal,
		m.CalculationWarnings,
		m.InventoryPointsCreated,
		m.FuelEventsConsumed,
		m.MonthlyCloseRuns,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// CalculationCompleted records a finished fuel calculation.
func (m *Metrics) CalculationCompleted(kind string, estimate bool, warnings int) {
	if m == nil {
		return
	}
	outcome := "exact"
	if estimate {
		outcome = "estimate"
	}
	m.CalculationsTotal.WithLabelValues(kind, outcome).Inc()
	if warnings > 0 {
		m.CalculationWarnings.WithLabelValues(kind).Add(float64(warnings))
	}
}

// InventoryCreated records a new fuel inventory point.
func (m *Metrics) InventoryCreated(source models.InventorySource) {
	if m == nil {
		return
	}
	m.InventoryPointsCreated.WithLabelValues(string(source)).Inc()
}

// FuelEventConsumed records the handling result of one MQTT fuel event.
func (m *Metrics) FuelEventConsumed(result string) {
	if m == nil {
		return
	}
	m.FuelEventsConsumed.WithLabelValues(result).Inc()
}

// MonthlyCloseReport records the result of one monthly close report.
func (m *Metrics) MonthlyCloseReport(result string) {
	if m == nil {
		return
	}
	m.MonthlyCloseRuns.WithLabelValues(result).Inc()
}
