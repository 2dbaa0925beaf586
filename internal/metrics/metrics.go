// Package metrics exposes the Prometheus counters and histograms the
// orchestrator and transport client record against. A nil *Registry is a
// valid, fully inert no-op so callers that don't need metrics never have
// to special-case it (§13).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every metric the SDK emits under one prometheus.Registry
// so a caller can register it once and scrape it alongside their own.
type Registry struct {
	reg *prometheus.Registry

	GuardFailures       *prometheus.CounterVec
	PreflightFailures   *prometheus.CounterVec
	DispatchTotal       *prometheus.CounterVec
	CompensationEvents  prometheus.Counter
	TransportDuration   *prometheus.HistogramVec
}

// New builds a Registry with all metrics registered. Pass the result's
// Gatherer to a /metrics handler, or merge it into an existing registry.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		GuardFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visa_payout_guard_failures_total",
			Help: "Funding guard failures by error kind.",
		}, []string{"kind"}),
		PreflightFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visa_payout_preflight_failures_total",
			Help: "Preflight pipeline failures by error kind.",
		}, []string{"kind"}),
		DispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "visa_payout_dispatch_total",
			Help: "Dispatched payouts by destination type and outcome.",
		}, []string{"destination", "outcome"}),
		CompensationEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "visa_payout_compensation_events_total",
			Help: "Compensation events emitted after a dispatch failure.",
		}),
		TransportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visa_transport_request_duration_seconds",
			Help:    "Secure transport request latency by path.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}

	reg.MustRegister(r.GuardFailures, r.PreflightFailures, r.DispatchTotal, r.CompensationEvents, r.TransportDuration)
	return r
}

// Gatherer exposes the underlying registry for a /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.reg
}

func (r *Registry) guardFailure(kind string) {
	if r == nil {
		return
	}
	r.GuardFailures.WithLabelValues(kind).Inc()
}

func (r *Registry) preflightFailure(kind string) {
	if r == nil {
		return
	}
	r.PreflightFailures.WithLabelValues(kind).Inc()
}

func (r *Registry) dispatch(destination, outcome string) {
	if r == nil {
		return
	}
	r.DispatchTotal.WithLabelValues(destination, outcome).Inc()
}

func (r *Registry) compensationEvent() {
	if r == nil {
		return
	}
	r.CompensationEvents.Inc()
}

// ObserveGuardFailure, ObservePreflightFailure, ObserveDispatch, and
// ObserveCompensationEvent are the orchestrator-facing entry points; they
// tolerate a nil receiver so an orchestrator built without metrics never
// has to nil-check before calling them.
func (r *Registry) ObserveGuardFailure(kind string)     { r.guardFailure(kind) }
func (r *Registry) ObservePreflightFailure(kind string) { r.preflightFailure(kind) }
func (r *Registry) ObserveDispatch(destination, outcome string) { r.dispatch(destination, outcome) }
func (r *Registry) ObserveCompensationEvent()           { r.compensationEvent() }
