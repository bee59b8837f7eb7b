package github

import (
	"github.com/prometheus/client_golang/prometheus"
)

type clientMetrics struct {
	calls   *prometheus.CounterVec
	retries *prometheus.CounterVec
}

// newClientMetrics builds the GitHub call counters. A nil reg leaves them
// unregistered.
func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	m := &clientMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewdash",
			Subsystem: "github",
			Name:      "calls_total",
			Help:      "Total number of GitHub API operations by outcome.",
		}, []string{"operation", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewdash",
			Subsystem: "github",
			Name:      "retries_total",
			Help:      "Total number of retried GitHub API calls.",
		}, []string{"operation"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.retries)
	}
	return m
}

func (m *clientMetrics) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
}
