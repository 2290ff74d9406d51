// Package metrics holds the Prometheus collectors for the point ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement outcomes used as the "outcome" label.
const (
	OutcomeCharged           = "charged"
	OutcomeFreeGrant         = "free_grant"
	OutcomeEntitled          = "entitled"
	OutcomeOwner             = "owner"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeNotFound          = "not_found"
	OutcomeFailed            = "failed"
)

// Metrics is the set of ledger collectors.
type Metrics struct {
	Settlements        *prometheus.CounterVec
	Points             *prometheus.CounterVec
	SettlementDuration prometheus.Histogram
	UploadRollbacks    prometheus.Counter
}

// New creates the collectors and registers them with reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Settlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeyfile",
			Name:      "settlements_total",
			Help:      "Download settlements by outcome.",
		}, []string{"outcome"}),
		Points: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeyfile",
			Name:      "points_total",
			Help:      "Points moved through the ledger by transaction kind.",
		}, []string{"kind"}),
		SettlementDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "honeyfile",
			Name:      "settlement_duration_seconds",
			Help:      "Wall time of download settlements including retries.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		UploadRollbacks: f.NewCounter(prometheus.CounterOpts{
			Namespace: "honeyfile",
			Name:      "upload_rollbacks_total",
			Help:      "File records deactivated because the upload bonus failed.",
		}),
	}
}
