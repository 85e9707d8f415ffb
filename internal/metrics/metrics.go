package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors. All methods are
// safe on a nil receiver so wiring stays optional in tests.
type Metrics struct {
	tradesProcessed prometheus.Counter
	tradesRejected  prometheus.Counter
	detections      *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	dispatches      *prometheus.CounterVec
	processLatency  prometheus.Histogram
	queueDepth      prometheus.Gauge
}

// New registers the flowradar collectors on the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		tradesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_trades_processed_total",
			Help: "Trades accepted by the engine",
		}),
		tradesRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowradar_trades_rejected_total",
			Help: "Trades failing ingestion validation",
		}),
		detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_detections_total",
			Help: "Patterns detected, by pattern type",
		}, []string{"pattern"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_alerts_total",
			Help: "Alerts raised, by type and severity",
		}, []string{"type", "severity"}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowradar_dispatch_total",
			Help: "Channel delivery outcomes",
		}, []string{"channel", "outcome"}),
		processLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowradar_process_seconds",
			Help:    "ProcessTrade latency",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowradar_dispatch_queue_depth",
			Help: "Outbound dispatch queue depth",
		}),
	}
}

// TradeProcessed counts an accepted trade and its processing latency
func (m *Metrics) TradeProcessed(seconds float64) {
	if m == nil {
		return
	}
	m.tradesProcessed.Inc()
	m.processLatency.Observe(seconds)
}

// TradeRejected counts a validation failure
func (m *Metrics) TradeRejected() {
	if m == nil {
		return
	}
	m.tradesRejected.Inc()
}

// Detection counts a detected pattern
func (m *Metrics) Detection(pattern string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(pattern).Inc()
}

// AlertRaised counts a raised alert
func (m *Metrics) AlertRaised(alertType, severity string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(alertType, severity).Inc()
}

// Dispatch counts a channel delivery outcome
func (m *Metrics) Dispatch(channel string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.dispatches.WithLabelValues(channel, outcome).Inc()
}

// QueueDepth reports the outbound queue depth
func (m *Metrics) QueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}
