// Package models is the voting request ledger: the request record, its
// append-only vote list, the status machine and the quorum policies.
package models

import (
	"time"

	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
)

// Stable error reasons surfaced to clients.
const (
	ReasonDuplicateRequest  = "duplicate_request"
	ReasonAlreadyMember     = "already_member"
	ReasonRequestNotFound   = "request_not_found"
	ReasonRequestNotPending = "request_not_pending"
	ReasonNotEligibleVoter  = "not_eligible_voter"
	ReasonDuplicateVote     = "duplicate_vote"
)

type RequestType string

const (
	RequestTypeResidentJoin    RequestType = "resident_join"
	RequestTypeProviderListing RequestType = "provider_listing"
)

func (t RequestType) IsValid() bool {
	return t == RequestTypeResidentJoin || t == RequestTypeProviderListing
}

// ParseRequestType validates a wire value.
func ParseRequestType(s string) (RequestType, error) {
	t := RequestType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "request_type must be resident_join or provider_listing")
	}
	return t, nil
}

type Status string

const (
	StatusPending Status = "pending"
	// StatusApprovalPendingCommit means quorum approved the request but the
	// membership write has not committed yet. Shown publicly as pending.
	StatusApprovalPendingCommit Status = "approval_pending_commit"
	StatusApproved              Status = "approved"
	StatusRejected              Status = "rejected"
	StatusExpired               Status = "expired"
)

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// IsOpen reports whether the request still blocks a new one for its subject.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusApprovalPendingCommit
}

// Public maps internal sub-states onto the statuses clients see.
func (s Status) Public() Status {
	if s == StatusApprovalPendingCommit {
		return StatusPending
	}
	return s
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// ParseDecision validates a wire value.
func ParseDecision(s string) (Decision, error) {
	d := Decision(s)
	if !d.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	return d, nil
}

// Subject is what a request is about: a resident user for a join request, or
// a provider plus its owning user for a listing request. ProviderID is nil
// for residents.
type Subject struct {
	UserID     id.UserID
	ProviderID id.ProviderID
}

func ResidentSubject(userID id.UserID) Subject {
	return Subject{UserID: userID}
}

func ProviderSubject(providerID id.ProviderID, owner id.UserID) Subject {
	return Subject{UserID: owner, ProviderID: providerID}
}

func (s Subject) IsProvider() bool {
	return !s.ProviderID.IsNil()
}

// Validate checks the variant matches the request type.
func (s Subject) Validate(t RequestType) error {
	if s.UserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "subject user is required")
	}
	switch t {
	case RequestTypeResidentJoin:
		if s.IsProvider() {
			return dErrors.New(dErrors.CodeValidation, "resident_join subject must be a resident")
		}
	case RequestTypeProviderListing:
		if !s.IsProvider() {
			return dErrors.New(dErrors.CodeValidation, "provider_listing subject must be a provider")
		}
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown request type")
	}
	return nil
}

// Key identifies the subject within a request type, for locking.
func (s Subject) Key() string {
	if s.IsProvider() {
		return "provider:" + s.ProviderID.String()
	}
	return "resident:" + s.UserID.String()
}

type Vote struct {
	VoterID  id.UserID
	Decision Decision
	CastAt   time.Time
}

type Tally struct {
	Approved int
	Rejected int
}

// Total is the number of votes cast.
func (t Tally) Total() int { return t.Approved + t.Rejected }

// VotingRequest is one membership or listing proposal and its votes.
type VotingRequest struct {
	ID              id.RequestID
	Type            RequestType
	SocietyID       id.SocietyID
	Subject         Subject
	InitiatedBy     id.UserID
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ExpiryTime      time.Time
	ResolvedAt      *time.Time
	Votes           []Vote
	PolicyVersion   string
	CommitAttempts  int
	LastCommitError string
	Escalated       bool
}

// NewVotingRequest builds a pending request that expires window after now.
func NewVotingRequest(requestID id.RequestID, t RequestType, societyID id.SocietyID, subject Subject,
	initiator id.UserID, policyVersion string, now time.Time, window time.Duration,
) (*VotingRequest, error) {
	if requestID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "request id is required")
	}
	if societyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "society_id is required")
	}
	if initiator.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "initiator is required")
	}
	if err := subject.Validate(t); err != nil {
		return nil, err
	}
	if window <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "voting window must be positive")
	}
	return &VotingRequest{
		ID:            requestID,
		Type:          t,
		SocietyID:     societyID,
		Subject:       subject,
		InitiatedBy:   initiator,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiryTime:    now.Add(window),
		PolicyVersion: policyVersion,
	}, nil
}

// Tally counts approvals and rejections.
func (r *VotingRequest) Tally() Tally {
	var t Tally
	for _, v := range r.Votes {
		switch v.Decision {
		case DecisionApprove:
			t.Approved++
		case DecisionReject:
			t.Rejected++
		}
	}
	return t
}

func (r *VotingRequest) HasVoted(voter id.UserID) bool {
	for _, v := range r.Votes {
		if v.VoterID == voter {
			return true
		}
	}
	return false
}

// IsExpiredAt reports whether a pending request is past its expiry at now.
func (r *VotingRequest) IsExpiredAt(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.ExpiryTime)
}

// EffectiveStatus is the public status at now: unswept expired requests read
// as expired and the pending-commit sub-state reads as pending.
func (r *VotingRequest) EffectiveStatus(now time.Time) Status {
	if r.IsExpiredAt(now) {
		return StatusExpired
	}
	return r.Status.Public()
}

// IsExcludedVoter reports whether user may never vote on this request.
func (r *VotingRequest) IsExcludedVoter(user id.UserID) bool {
	return user == r.Subject.UserID || user == r.InitiatedBy
}

// AppendVote records a vote. The request must be pending and the voter must
// not have voted yet.
func (r *VotingRequest) AppendVote(voter id.UserID, decision Decision, now time.Time) (Vote, error) {
	if r.Status != StatusPending {
		return Vote{}, ErrNotPending()
	}
	if !decision.IsValid() {
		return Vote{}, dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	if r.HasVoted(voter) {
		return Vote{}, dErrors.NewReason(dErrors.CodeConflict, ReasonDuplicateVote, "voter has already voted on this request")
	}
	v := Vote{VoterID: voter, Decision: decision, CastAt: now}
	r.Votes = append(r.Votes, v)
	r.UpdatedAt = now
	return v, nil
}

var transitions = map[Status][]Status{
	StatusPending:               {StatusApprovalPendingCommit, StatusRejected, StatusExpired},
	StatusApprovalPendingCommit: {StatusApproved},
}

func (r *VotingRequest) transition(to Status, now time.Time) error {
	for _, allowed := range transitions[r.Status] {
		if allowed == to {
			r.Status = to
			r.UpdatedAt = now
			if to.IsTerminal() {
				resolved := now
				r.ResolvedAt = &resolved
			}
			return nil
		}
	}
	return dErrors.NewReason(dErrors.CodeInvalidState, ReasonRequestNotPending,
		"cannot move request from "+string(r.Status)+" to "+string(to))
}

// MarkPendingCommit records quorum approval ahead of the membership write.
func (r *VotingRequest) MarkPendingCommit(now time.Time) error {
	return r.transition(StatusApprovalPendingCommit, now)
}

// MarkApproved completes an approval once the membership write committed.
func (r *VotingRequest) MarkApproved(now time.Time) error {
	if err := r.transition(StatusApproved, now); err != nil {
		return err
	}
	r.LastCommitError = ""
	return nil
}

func (r *VotingRequest) MarkRejected(now time.Time) error {
	return r.transition(StatusRejected, now)
}

func (r *VotingRequest) MarkExpired(now time.Time) error {
	return r.transition(StatusExpired, now)
}

// RecordCommitFailure notes a failed membership write and returns the
// attempt count so far.
func (r *VotingRequest) RecordCommitFailure(cause error, now time.Time) int {
	r.CommitAttempts++
	if cause != nil {
		r.LastCommitError = cause.Error()
	}
	r.UpdatedAt = now
	return r.CommitAttempts
}

// Clone returns a deep copy.
func (r *VotingRequest) Clone() *VotingRequest {
	c := *r
	c.Votes = append([]Vote(nil), r.Votes...)
	if r.ResolvedAt != nil {
		resolved := *r.ResolvedAt
		c.ResolvedAt = &resolved
	}
	return &c
}

// ErrNotPending is returned for any vote on a request that is not open for
// voting.
func ErrNotPending() error {
	return dErrors.NewReason(dErrors.CodeInvalidState, ReasonRequestNotPending, "voting request is not pending")
}
