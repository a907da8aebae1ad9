// Package metrics holds the Prometheus instruments for the consent workflow.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	StageTransitions *prometheus.CounterVec
	RetryVerdicts    *prometheus.CounterVec
	GatewayDuration  *prometheus.HistogramVec
	GatewayFailures  *prometheus.CounterVec
	AdvanceDuration  *prometheus.HistogramVec
	AuditPublished   *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	CounterDuration  *prometheus.HistogramVec
}

// New creates and registers all metrics with reg. A nil reg registers with the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		StageTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentflow_stage_transitions_total",
			Help: "Workflow stage changes produced by advance",
		}, []string{"from", "to"}),
		RetryVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentflow_retry_verdicts_total",
			Help: "Retry policy verdicts by counter name",
		}, []string{"counter", "verdict"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentflow_gateway_request_duration_seconds",
			Help:    "Duration of downstream gateway calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		GatewayFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentflow_gateway_failures_total",
			Help: "Classified downstream gateway failures",
		}, []string{"op", "kind"}),
		AdvanceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentflow_advance_duration_seconds",
			Help:    "Duration of advance calls by event kind",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 30},
		}, []string{"event"}),
		AuditPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "consentflow_audit_events_total",
			Help: "Audit events emitted by action and sink result",
		}, []string{"action", "result"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		CounterDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consentflow_counter_increment_duration_seconds",
			Help:    "Latency of shared counter increments",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}, []string{"op"}),
	}
}

// ObserveStageTransition records a stage change. Unchanged stages are ignored.
func (m *Metrics) ObserveStageTransition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.StageTransitions.WithLabelValues(from, to).Inc()
}

// IncrementRetryVerdict records one evaluator verdict.
func (m *Metrics) IncrementRetryVerdict(counter, verdict string) {
	if m == nil {
		return
	}
	m.RetryVerdicts.WithLabelValues(counter, verdict).Inc()
}

// ObserveGatewayRequest records the duration of a gateway call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGatewayRequest(op string, start time.Time) {
	if m == nil {
		return
	}
	m.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementGatewayFailure records a classified gateway failure.
func (m *Metrics) IncrementGatewayFailure(op, kind string) {
	if m == nil {
		return
	}
	m.GatewayFailures.WithLabelValues(op, kind).Inc()
}

// ObserveAdvance records the duration of one advance call.
func (m *Metrics) ObserveAdvance(event string, start time.Time) {
	if m == nil {
		return
	}
	m.AdvanceDuration.WithLabelValues(event).Observe(time.Since(start).Seconds())
}

// IncrementAudit records an audit emission; result is "ok" or "error".
func (m *Metrics) IncrementAudit(action, result string) {
	if m == nil {
		return
	}
	m.AuditPublished.WithLabelValues(action, result).Inc()
}

// ObserveHTTPRequest records the latency of one HTTP request.
func (m *Metrics) ObserveHTTPRequest(route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// ObserveCounterIncrement records the latency of one counter store increment.
func (m *Metrics) ObserveCounterIncrement(op string, start time.Time) {
	if m == nil {
		return
	}
	m.CounterDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
