package models

import "fmt"

// Outcome is the result of evaluating a tally against a policy.
type Outcome int

const (
	OutcomeUndecided Outcome = iota
	OutcomeApproved
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return "undecided"
	}
}

// QuorumPolicy decides when a tally resolves a request. eligible is the
// number of voters eligible right now.
type QuorumPolicy interface {
	Version() string
	Evaluate(t Tally, eligible int) Outcome
}

// MajorityPolicy resolves once either side reaches a strict majority of the
// eligible voters: ceil((N+1)/2).
type MajorityPolicy struct {
	version string
}

func NewMajorityPolicy(version string) MajorityPolicy {
	if version == "" {
		version = "majority-v1"
	}
	return MajorityPolicy{version: version}
}

func (p MajorityPolicy) Version() string { return p.version }

// Threshold returns the votes either side needs with eligible voters.
func (p MajorityPolicy) Threshold(eligible int) int {
	if eligible < 0 {
		eligible = 0
	}
	return (eligible + 2) / 2
}

func (p MajorityPolicy) Evaluate(t Tally, eligible int) Outcome {
	return decide(t, p.Threshold(eligible), p.Threshold(eligible))
}

// FixedPolicy resolves on absolute vote counts regardless of society size.
type FixedPolicy struct {
	version   string
	approveAt int
	rejectAt  int
}

func NewFixedPolicy(version string, approveAt, rejectAt int) FixedPolicy {
	if version == "" {
		version = fmt.Sprintf("fixed-%d-%d-v1", approveAt, rejectAt)
	}
	return FixedPolicy{version: version, approveAt: approveAt, rejectAt: rejectAt}
}

func (p FixedPolicy) Version() string { return p.version }

func (p FixedPolicy) Evaluate(t Tally, _ int) Outcome {
	return decide(t, p.approveAt, p.rejectAt)
}

// decide applies thresholds. Rejection wins when both are met.
func decide(t Tally, approveAt, rejectAt int) Outcome {
	switch {
	case t.Rejected >= rejectAt:
		return OutcomeRejected
	case t.Approved >= approveAt:
		return OutcomeApproved
	default:
		return OutcomeUndecided
	}
}
