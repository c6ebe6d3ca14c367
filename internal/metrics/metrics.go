package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	submissions  *prometheus.CounterVec
	connects     *prometheus.CounterVec
	confirmation prometheus.Histogram
	history      prometheus.Gauge
	count        prometheus.Gauge
}

// New registers the provider metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transfer",
			Name:      "submissions_total",
			Help:      "Transfer submissions by outcome.",
		}, []string{"outcome"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transfer",
			Name:      "wallet_connects_total",
			Help:      "Wallet connect attempts by outcome.",
		}, []string{"outcome"}),
		confirmation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "transfer",
			Name:      "confirmation_seconds",
			Help:      "Time from record append to mined receipt.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		history: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transfer",
			Name:      "history_records",
			Help:      "Records returned by the last history load.",
		}),
		count: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "transfer",
			Name:      "ledger_count",
			Help:      "Last transfer count read from the ledger.",
		}),
	}
	reg.MustRegister(m.submissions, m.connects, m.confirmation, m.history, m.count)
	return m
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Connect(outcome string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Confirmed(d time.Duration) {
	if m == nil {
		return
	}
	m.confirmation.Observe(d.Seconds())
}

func (m *Metrics) History(n int) {
	if m == nil {
		return
	}
	m.history.Set(float64(n))
}

func (m *Metrics) Count(n int64) {
	if m == nil {
		return
	}
	m.count.Set(float64(n))
}
