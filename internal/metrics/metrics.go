package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StockReserved = "reserved"
	StockRestored = "restored"
)

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	saleOps        *prometheus.CounterVec
	saleDuration   *prometheus.HistogramVec
	stockUnits     *prometheus.CounterVec
	clockFallbacks prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

// New registers the collectors on reg, or on the default registerer when reg is nil.
// Registering twice on the same registerer reuses the existing collectors.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		saleOps: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "facturacion_sale_operations_total",
			Help: "Sale workflow operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		saleDuration: registerHistogramVec(reg, prometheus.HistogramOpts{
			Name:    "facturacion_sale_operation_duration_seconds",
			Help:    "Duration of sale workflow operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"operation"}),
		stockUnits: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "facturacion_stock_units_total",
			Help: "Product units reserved by or restored from committed sales",
		}, []string{"direction"}),
		clockFallbacks: registerCounter(reg, prometheus.CounterOpts{
			Name: "facturacion_clock_fallbacks_total",
			Help: "Sale timestamps taken from the local clock after a remote lookup failed",
		}),
		httpRequests: registerCounterVec(reg, prometheus.CounterOpts{
			Name: "facturacion_http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "status"}),
	}
}

func (m *Metrics) ObserveSaleOperation(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.saleOps.WithLabelValues(operation, outcome).Inc()
	m.saleDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) AddStockUnits(direction string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.stockUnits.WithLabelValues(direction).Add(float64(units))
}

func (m *Metrics) ClockFallback() {
	if m == nil {
		return
	}
	m.clockFallbacks.Inc()
}

func (m *Metrics) HTTPRequest(method string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func registerCounter(reg prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func registerHistogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}
