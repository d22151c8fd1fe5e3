package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMajorityThreshold(t *testing.T) {
	p := NewMajorityPolicy("")
	cases := map[int]int{0: 1, 1: 1, 2: 2, 3: 2, 4: 3, 5: 3, 10: 6}
	for eligible, want := range cases {
		assert.Equal(t, want, p.Threshold(eligible), "eligible=%d", eligible)
	}
	assert.Equal(t, "majority-v1", p.Version())
}

func TestMajorityEvaluate(t *testing.T) {
	p := NewMajorityPolicy("m1")
	tests := []struct {
		name     string
		tally    Tally
		eligible int
		want     Outcome
	}{
		{"no votes", Tally{}, 4, OutcomeUndecided},
		{"two of four", Tally{Approved: 2}, 4, OutcomeUndecided},
		{"three of four approve", Tally{Approved: 3}, 4, OutcomeApproved},
		{"three of four reject", Tally{Rejected: 3}, 4, OutcomeRejected},
		{"split", Tally{Approved: 2, Rejected: 2}, 4, OutcomeUndecided},
		{"shrunk society with both met", Tally{Approved: 2, Rejected: 2}, 2, OutcomeRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Evaluate(tt.tally, tt.eligible))
		})
	}
}

func TestFixedEvaluate(t *testing.T) {
	p := NewFixedPolicy("", 5, 3)
	assert.Equal(t, "fixed-5-3-v1", p.Version())
	assert.Equal(t, OutcomeUndecided, p.Evaluate(Tally{Approved: 4, Rejected: 2}, 100))
	assert.Equal(t, OutcomeApproved, p.Evaluate(Tally{Approved: 5}, 1))
	assert.Equal(t, OutcomeRejected, p.Evaluate(Tally{Rejected: 3}, 1))
	assert.Equal(t, OutcomeRejected, p.Evaluate(Tally{Approved: 5, Rejected: 3}, 1))
}
