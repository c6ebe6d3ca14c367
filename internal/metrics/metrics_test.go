package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Submission("ok")
	m.Submission("ok")
	m.Submission("wallet_unavailable")
	m.Connect("ok")
	m.Count(3)
	m.History(3)
	m.Confirmed(2 * time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("wallet_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connects.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.count))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.history))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Submission("ok")
		m.Connect("ok")
		m.Confirmed(time.Second)
		m.History(1)
		m.Count(1)
	})
}
