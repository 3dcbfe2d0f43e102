package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus collectors for the optionflow service.
// A nil *Registry is valid and makes every record method a no-op, so
// components can treat metrics as optional.
type Registry struct {
	reg *prometheus.Registry

	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram

	FetchErrors      *prometheus.CounterVec
	ContractsFetched *prometheus.CounterVec
	Anomalies        *prometheus.CounterVec

	ScoringRequests prometheus.Counter
	ScoringFailures prometheus.Counter

	StoreErrors *prometheus.CounterVec
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionflow_cycles_total",
			Help: "Completed collection cycles",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optionflow_cycle_duration_seconds",
			Help:    "Duration of one full collection cycle",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionflow_fetch_errors_total",
			Help: "Chain fetch failures by underlying",
		}, []string{"symbol"}),
		ContractsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionflow_contracts_fetched_total",
			Help: "Contract snapshots fetched by underlying",
		}, []string{"symbol"}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionflow_naked_positions_total",
			Help: "Naked-position detections by underlying",
		}, []string{"symbol"}),
		ScoringRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionflow_scoring_requests_total",
			Help: "Candidates submitted to the scoring service",
		}),
		ScoringFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "optionflow_scoring_failures_total",
			Help: "Scoring-service failures substituted with placeholders",
		}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optionflow_store_errors_total",
			Help: "Persistence failures by table",
		}, []string{"table"}),
	}

	r.reg.MustRegister(
		r.CyclesTotal,
		r.CycleDuration,
		r.FetchErrors,
		r.ContractsFetched,
		r.Anomalies,
		r.ScoringRequests,
		r.ScoringFailures,
		r.StoreErrors,
	)

	return r
}

// Handler returns the HTTP handler serving the metrics endpoint.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// RecordCycle records one completed collection cycle.
func (r *Registry) RecordCycle(d time.Duration) {
	if r == nil {
		return
	}
	r.CyclesTotal.Inc()
	r.CycleDuration.Observe(d.Seconds())
}

// RecordFetchError records a failed chain fetch.
func (r *Registry) RecordFetchError(symbol string) {
	if r == nil {
		return
	}
	r.FetchErrors.WithLabelValues(symbol).Inc()
}

// RecordContracts records fetched contract snapshots.
func (r *Registry) RecordContracts(symbol string, n int) {
	if r == nil {
		return
	}
	r.ContractsFetched.WithLabelValues(symbol).Add(float64(n))
}

// RecordAnomaly records a naked-position detection.
func (r *Registry) RecordAnomaly(symbol string) {
	if r == nil {
		return
	}
	r.Anomalies.WithLabelValues(symbol).Inc()
}

// RecordScoring records one scoring attempt and whether it failed.
func (r *Registry) RecordScoring(failed bool) {
	if r == nil {
		return
	}
	r.ScoringRequests.Inc()
	if failed {
		r.ScoringFailures.Inc()
	}
}

// RecordStoreError records a persistence failure for a table.
func (r *Registry) RecordStoreError(table string) {
	if r == nil {
		return
	}
	r.StoreErrors.WithLabelValues(table).Inc()
}
