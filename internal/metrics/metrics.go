// Package metrics exposes motion-loop counters in Prometheus format.
package metrics

import (
	"net/http"

	"glide/internal/motion"
	"glide/internal/trigger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one engine on a private registry
type Metrics struct {
	registry *prometheus.Registry

	sessions       prometheus.Counter
	intervals      prometheus.Counter
	steps          prometheus.Counter
	injectCalls    prometheus.Counter
	injectFailures prometheus.Counter
	cancelled      prometheus.Counter
	overshoot      prometheus.Histogram
	state          prometheus.Gauge
	enabled        prometheus.Gauge
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_sessions_total",
			Help: "Number of firing sessions started",
		}),
		intervals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_intervals_total",
			Help: "Number of intervals rendered",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_steps_total",
			Help: "Number of micro-steps executed",
		}),
		injectCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_inject_calls_total",
			Help: "Number of pointer injection calls issued",
		}),
		injectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_inject_failures_total",
			Help: "Number of pointer injection calls that failed",
		}),
		cancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "glide_cancelled_renders_total",
			Help: "Number of renders cut short by cancellation",
		}),
		overshoot: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "glide_step_lateness_seconds",
			Help:    "Worst pacing overshoot per rendered interval",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016},
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glide_arbiter_state",
			Help: "Arbiter state (0=idle 1=armed 2=firing 3=stopped)",
		}),
		enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "glide_enabled",
			Help: "1 while the engine is enabled",
		}),
	}
	m.state.Set(float64(trigger.Stopped))

	m.registry.MustRegister(
		m.sessions, m.intervals, m.steps, m.injectCalls, m.injectFailures,
		m.cancelled, m.overshoot, m.state, m.enabled,
	)
	return m
}

// ObserveTransition records an arbiter state change
func (m *Metrics) ObserveTransition(from, to trigger.State) {
	m.state.Set(float64(to))
	if to == trigger.Firing {
		m.sessions.Inc()
	}
}

// ObserveRender records one rendered interval
func (m *Metrics) ObserveRender(res motion.Result) {
	m.intervals.Inc()
	m.steps.Add(float64(res.Run))
	m.injectCalls.Add(float64(res.Calls))
	m.injectFailures.Add(float64(res.Failures))
	if res.Cancelled {
		m.cancelled.Inc()
	}
	if res.Steps > 1 {
		m.overshoot.Observe(res.MaxOvershoot.Seconds())
	}
}

// SetEnabled records whether the engine is running
func (m *Metrics) SetEnabled(on bool) {
	if on {
		m.enabled.Set(1)
	} else {
		m.enabled.Set(0)
	}
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
