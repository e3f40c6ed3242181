package prom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bastion-go/bastion"
)

// Metrics holds the collectors fed by a bastion hooks adapter. Create one per
// Prometheus registry with [New], then pass [Metrics.Hooks] to the breakers
// and policies you want observed.
type Metrics struct {
	stateChanges *prometheus.CounterVec
	open         *prometheus.GaugeVec
	rejections   *prometheus.CounterVec
	slowCalls    *prometheus.CounterVec
	retries      *prometheus.CounterVec
	exhausted    *prometheus.CounterVec
}

// New creates the collector set and registers it with reg. It panics if a
// collector with the same name is already registered, matching the usual
// MustRegister contract.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bastion_breaker_state_changes_total",
				Help: "Breaker state transitions by destination state",
			},
			[]string{"breaker", "to"},
		),
		open: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bastion_breaker_open",
				Help: "1 while the breaker is open, 0 otherwise",
			},
			[]string{"breaker"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bastion_breaker_rejections_total",
				Help: "Calls rejected without invoking the operation",
			},
			[]string{"breaker"},
		),
		slowCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bastion_breaker_slow_calls_total",
				Help: "Completed calls that exceeded the breaker call timeout",
			},
			[]string{"breaker"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bastion_retry_attempts_total",
				Help: "Failed attempts that were retried",
			},
			[]string{"policy"},
		),
		exhausted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bastion_retry_exhausted_total",
				Help: "Retry loops that gave up",
			},
			[]string{"policy"},
		),
	}

	reg.MustRegister(
		m.stateChanges,
		m.open,
		m.rejections,
		m.slowCalls,
		m.retries,
		m.exhausted,
	)

	return m
}

// Hooks returns a bastion hooks value feeding these collectors. The same
// hooks can be shared by any number of breakers and policies; series are
// split by the breaker or policy name.
func (m *Metrics) Hooks() *bastion.Hooks {
	return &bastion.Hooks{
		OnStateChange: func(name string, _, to bastion.BreakerState) {
			m.stateChanges.WithLabelValues(name, to.String()).Inc()

			if to == bastion.StateOpen {
				m.open.WithLabelValues(name).Set(1)
			} else {
				m.open.WithLabelValues(name).Set(0)
			}
		},
		OnReject: func(name string) {
			m.rejections.WithLabelValues(name).Inc()
		},
		OnSlowCall: func(name string, _ time.Duration) {
			m.slowCalls.WithLabelValues(name).Inc()
		},
		OnRetry: func(name string, _ int, _ error) {
			m.retries.WithLabelValues(name).Inc()
		},
		OnExhausted: func(name string, _ int, _ error) {
			m.exhausted.WithLabelValues(name).Inc()
		},
	}
}
