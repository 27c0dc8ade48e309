package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Renewal outcomes recorded by Metrics.Renewals
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransient = "transient"
)

// Metrics counts session lifecycle events.
type Metrics struct {
	Renewals       *prometheus.CounterVec
	QueuedCallers  prometheus.Counter
	ForcedSignOuts prometheus.Counter
	Blocked        prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Renewals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "session",
			Name:      "renewals_total",
			Help:      "Refresh endpoint calls by outcome.",
		}, []string{"outcome"}),
		QueuedCallers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "session",
			Name:      "renewal_waiters_total",
			Help:      "Callers that waited on an in-flight renewal instead of starting one.",
		}),
		ForcedSignOuts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "session",
			Name:      "forced_signouts_total",
			Help:      "Sessions ended because the refresh credential was rejected.",
		}),
		Blocked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "session",
			Name:      "blocked_requests_total",
			Help:      "Protected requests refused locally while logged out.",
		}),
	}
}
