// Package metrics holds the Prometheus instrumentation of query compilation,
// evaluation and suggestion.
//
// A nil *Metrics is valid and records nothing, so library code can take an
// optional *Metrics without checks at every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Compilation results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds all Prometheus metrics of the query engine.
type Metrics struct {
	Compilations      *prometheus.CounterVec
	CompileDuration   prometheus.Histogram
	RuntimeErrors     prometheus.Counter
	EntitiesEvaluated prometheus.Counter
	EntitiesMatched   prometheus.Counter
	Suggestions       prometheus.Counter
}

// New creates and registers all metrics with the provided registry.
func New(reg prometheus.Registerer) *Metrics {
	compilations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vql_compilations_total",
		Help: "Total query compilations by result",
	}, []string{"result"})

	compileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vql_compile_duration_seconds",
		Help:    "Time spent compiling queries",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})

	runtimeErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vql_runtime_errors_total",
		Help: "Total distinct runtime errors reported during evaluation",
	})

	evaluated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vql_entities_evaluated_total",
		Help: "Total entities tested against a query predicate",
	})

	matched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vql_entities_matched_total",
		Help: "Total entities that passed a query predicate",
	})

	suggestions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vql_suggestions_total",
		Help: "Total suggestions produced",
	})

	reg.MustRegister(compilations, compileDuration, runtimeErrors, evaluated, matched, suggestions)

	return &Metrics{
		Compilations:      compilations,
		CompileDuration:   compileDuration,
		RuntimeErrors:     runtimeErrors,
		EntitiesEvaluated: evaluated,
		EntitiesMatched:   matched,
		Suggestions:       suggestions,
	}
}

// ObserveCompilation records one compilation and its duration.
func (m *Metrics) ObserveCompilation(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.Compilations.WithLabelValues(result).Inc()
	m.CompileDuration.Observe(d.Seconds())
}

// RuntimeError records one distinct runtime error.
func (m *Metrics) RuntimeError() {
	if m == nil {
		return
	}
	m.RuntimeErrors.Inc()
}

// Evaluated records one entity tested against a predicate.
func (m *Metrics) Evaluated(matched bool) {
	if m == nil {
		return
	}
	m.EntitiesEvaluated.Inc()
	if matched {
		m.EntitiesMatched.Inc()
	}
}

// SuggestionsProduced records n suggestions.
func (m *Metrics) SuggestionsProduced(n int) {
	if m == nil {
		return
	}
	m.Suggestions.Add(float64(n))
}
