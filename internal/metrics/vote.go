package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VoteMetrics holds the ledger collectors. A nil *VoteMetrics records nothing.
type VoteMetrics struct {
	Outcomes  *prometheus.CounterVec
	Conflicts prometheus.Counter
	Duration  prometheus.Histogram
}

func NewVoteMetrics(reg prometheus.Registerer) *VoteMetrics {
	m := &VoteMetrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "votes_total",
			Help:      "Total number of cast votes, by outcome or error code.",
		}, []string{"result"}),
		Conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vote_conflicts_total",
			Help:      "Concurrent first-vote conflicts that triggered a retry.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vote_duration_seconds",
			Help:      "Duration of CastVote including retries.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
	}

	reg.MustRegister(m.Outcomes, m.Conflicts, m.Duration)
	return m
}

func (m *VoteMetrics) Observe(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(result).Inc()
	m.Duration.Observe(elapsed.Seconds())
}

func (m *VoteMetrics) Conflict() {
	if m != nil {
		m.Conflicts.Inc()
	}
}
