package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Settlements.WithLabelValues(OutcomeCharged).Inc()
	m.Points.WithLabelValues("spend").Add(10)
	m.UploadRollbacks.Inc()
	m.SettlementDuration.Observe(0.01)

	if got := testutil.ToFloat64(m.Settlements.WithLabelValues(OutcomeCharged)); got != 1 {
		t.Errorf("settlements{charged} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.Points.WithLabelValues("spend")); got != 10 {
		t.Errorf("points{spend} = %v, want 10", got)
	}

	n, err := testutil.GatherAndCount(reg)
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if n != 4 {
		t.Errorf("gathered %d metrics, want 4", n)
	}
}

func TestNewWithNilRegisterer(t *testing.T) {
	// Two unregistered sets must not collide.
	a := New(nil)
	b := New(nil)
	a.UploadRollbacks.Inc()
	if got := testutil.ToFloat64(b.UploadRollbacks); got != 0 {
		t.Errorf("independent counter = %v, want 0", got)
	}
}
