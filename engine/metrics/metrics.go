// Package metrics exposes Prometheus counters for the event dispatcher and
// the timer scheduler. A *Metrics satisfies both event.Observer and
// timer.Observer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metric descriptors for the engine.
type Metrics struct {
	ticksTotal    prometheus.Counter
	jobsExecuted  *prometheus.CounterVec
	jobFaults     *prometheus.CounterVec
	jobsActive    prometheus.Gauge
	eventsFired   *prometheus.CounterVec
	actionsVetoed *prometheus.CounterVec
	triggerFaults *prometheus.CounterVec
}

// New creates the engine metrics and registers them with reg. A nil reg
// uses the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trogdor_ticks_total",
			Help: "Total scheduler ticks since start.",
		}),
		jobsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trogdor_jobs_executed_total",
			Help: "Timer job executions by job type.",
		}, []string{"type"}),
		jobFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trogdor_job_faults_total",
			Help: "Timer job executions that panicked, by job type.",
		}, []string{"type"}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trogdor_jobs_active",
			Help: "Jobs in the scheduler's active set after the last tick.",
		}),
		eventsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trogdor_events_fired_total",
			Help: "Dispatched events by name.",
		}, []string{"event"}),
		actionsVetoed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trogdor_actions_vetoed_total",
			Help: "Dispatches whose final verdict suppressed the action, by event name.",
		}, []string{"event"}),
		triggerFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trogdor_trigger_faults_total",
			Help: "Triggers that panicked or failed during dispatch, by trigger type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.ticksTotal,
		m.jobsExecuted,
		m.jobFaults,
		m.jobsActive,
		m.eventsFired,
		m.actionsVetoed,
		m.triggerFaults,
	)

	return m
}

func (m *Metrics) Ticked() { m.ticksTotal.Inc() }
func (m *Metrics) JobExecuted(tag string) { m.jobsExecuted.WithLabelValues(tag).Inc() }
func (m *Metrics) JobFault(tag string) { m.jobFaults.WithLabelValues(tag).Inc() }
func (m *Metrics) ActiveJobs(n int) { m.jobsActive.Set(float64(n)) }
func (m *Metrics) EventFired(name string) { m.eventsFired.WithLabelValues(name).Inc() }
func (m *Metrics) ActionVetoed(name string) { m.actionsVetoed.WithLabelValues(name).Inc() }
func (m *Metrics) TriggerFault(tag string) { m.triggerFaults.WithLabelValues(tag).Inc() }
