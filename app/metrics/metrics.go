package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	gatewayCalls     *prometheus.CounterVec
	gatewayLatency   *prometheus.HistogramVec
	orderTransitions *prometheus.CounterVec
	callbacks        *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		gatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardgateway",
			Name:      "gateway_requests_total",
			Help:      "Outbound gateway requests by endpoint, action and result.",
		}, []string{"endpoint", "action", "result"}),
		gatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cardgateway",
			Name:      "gateway_request_duration_seconds",
			Help:      "Outbound gateway request latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 45},
		}, []string{"endpoint", "action"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardgateway",
			Name:      "order_transitions_total",
			Help:      "Order status transitions applied by operation.",
		}, []string{"operation", "from", "to"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cardgateway",
			Name:      "gateway_callbacks_total",
			Help:      "Inbound gateway notifications by source and status.",
		}, []string{"source", "status"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.gatewayCalls,
		m.gatewayLatency,
		m.orderTransitions,
		m.callbacks,
	)
	return m
}

func (m *Metrics) ObserveGatewayCall(endpoint, action, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(endpoint, action, result).Inc()
	m.gatewayLatency.WithLabelValues(endpoint, action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveTransition(operation, from, to string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(operation, from, to).Inc()
}

func (m *Metrics) ObserveCallback(source, status string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(source, status).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
