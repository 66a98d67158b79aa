package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCompilation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveCompilation(true, time.Millisecond)
	m.ObserveCompilation(true, time.Millisecond)
	m.ObserveCompilation(false, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Compilations.WithLabelValues(ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Compilations.WithLabelValues(ResultError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CompileDuration))
}

func TestEvaluated(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Evaluated(true)
	m.Evaluated(false)
	m.Evaluated(true)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.EntitiesEvaluated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntitiesMatched))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RuntimeError()
	m.SuggestionsProduced(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuntimeErrors))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Suggestions))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveCompilation(true, time.Second)
		m.RuntimeError()
		m.Evaluated(true)
		m.SuggestionsProduced(3)
	})
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) })
}
