package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncRequestCreated("resident_join")
	m.IncVoteCast("approve")
	m.IncVoteCast("approve")
	m.IncResolution("approved")
	m.AddSweepExpired(3)
	m.AddSweepExpired(0)
	m.IncCommitFailure("vote")
	m.IncCommitEscalation()
	m.SetPendingCommits(2)
	m.ObserveOperation("cast_vote", time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsCreated.WithLabelValues("resident_join")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesCast.WithLabelValues("approve")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SweepExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommitFailures.WithLabelValues("vote")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PendingCommits))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRequestCreated("resident_join")
		m.IncVoteCast("reject")
		m.IncResolution("rejected")
		m.AddSweepExpired(1)
		m.IncCommitFailure("reconcile")
		m.IncCommitEscalation()
		m.SetPendingCommits(0)
		m.ObserveOperation("sweep", time.Now())
	})
}
