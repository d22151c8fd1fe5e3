package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Requests created by type
	RequestsCreated *prometheus.CounterVec

	// Votes accepted by decision
	VotesCast *prometheus.CounterVec

	// Requests resolved by outcome: approved, rejected, expired
	Resolutions *prometheus.CounterVec

	// Requests expired by the sweeper
	SweepExpired prometheus.Counter

	// Membership writes that failed after quorum approval
	CommitFailures *prometheus.CounterVec

	// Requests escalated after repeated commit failures
	CommitEscalations prometheus.Counter

	// Requests currently stuck awaiting commit, as of the last reconcile
	PendingCommits prometheus.Gauge

	// Engine operation latency
	OperationDuration *prometheus.HistogramVec
}

// New registers governance metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "habitat_governance_requests_created_total",
			Help: "Total voting requests created by request type",
		}, []string{"request_type"}),

		VotesCast: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "habitat_governance_votes_cast_total",
			Help: "Total votes accepted by decision",
		}, []string{"decision"}),

		Resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "habitat_governance_resolutions_total",
			Help: "Total voting requests resolved by outcome",
		}, []string{"outcome"}),

		SweepExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "habitat_governance_sweep_expired_total",
			Help: "Total voting requests expired by the sweeper",
		}),

		CommitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "habitat_governance_commit_failures_total",
			Help: "Total membership commits that failed after approval, by phase",
		}, []string{"phase"}), // phase: "vote", "reconcile"

		CommitEscalations: factory.NewCounter(prometheus.CounterOpts{
			Name: "habitat_governance_commit_escalations_total",
			Help: "Total voting requests escalated after repeated commit failures",
		}),

		PendingCommits: factory.NewGauge(prometheus.GaugeOpts{
			Name: "habitat_governance_pending_commits",
			Help: "Voting requests approved by quorum whose membership write has not committed",
		}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habitat_governance_operation_duration_seconds",
			Help:    "Duration of governance engine operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncRequestCreated(requestType string) {
	if m != nil {
		m.RequestsCreated.WithLabelValues(requestType).Inc()
	}
}

func (m *Metrics) IncVoteCast(decision string) {
	if m != nil {
		m.VotesCast.WithLabelValues(decision).Inc()
	}
}

func (m *Metrics) IncResolution(outcome string) {
	if m != nil {
		m.Resolutions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) AddSweepExpired(n int) {
	if m != nil && n > 0 {
		m.SweepExpired.Add(float64(n))
	}
}

func (m *Metrics) IncCommitFailure(phase string) {
	if m != nil {
		m.CommitFailures.WithLabelValues(phase).Inc()
	}
}

func (m *Metrics) IncCommitEscalation() {
	if m != nil {
		m.CommitEscalations.Inc()
	}
}

func (m *Metrics) SetPendingCommits(n int) {
	if m != nil {
		m.PendingCommits.Set(float64(n))
	}
}

// ObserveOperation records how long an engine operation took.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m != nil {
		m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
