package audit

import (
	"context"
	"time"

	id "habitat/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing downstream.
type EventCategory string

const (
	// CategoryCompliance covers governance outcomes that change who belongs to
	// a society. These are written fail-closed alongside the state change.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers signals that need a human: stuck commits.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lifecycle activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from governance logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string
	Category  EventCategory
	Timestamp time.Time
	// VotingRequestID is the governance request the event is about.
	VotingRequestID id.RequestID
	SocietyID       id.SocietyID
	// ActorID is the user who caused the event; nil for sweeps and reconciles.
	ActorID  id.UserID
	Action   string
	Decision string
	Reason   string
	// RequestID is the HTTP correlation ID, when the event happened inside a request.
	RequestID string
}

type AuditEvent string

const (
	EventVotingRequestCreated  AuditEvent = "voting_request_created"
	EventVoteCast              AuditEvent = "vote_cast"
	EventVotingRequestApproved AuditEvent = "voting_request_approved"
	EventVotingRequestRejected AuditEvent = "voting_request_rejected"
	EventVotingRequestExpired  AuditEvent = "voting_request_expired"
	EventCommitFailed          AuditEvent = "commit_failed"
	EventCommitEscalated       AuditEvent = "commit_escalated"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVotingRequestCreated:  CategoryCompliance,
	EventVoteCast:              CategoryCompliance,
	EventVotingRequestApproved: CategoryCompliance,
	EventVotingRequestRejected: CategoryCompliance,

	EventCommitEscalated: CategorySecurity,

	EventVotingRequestExpired: CategoryOperations,
	EventCommitFailed:         CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Postgres-backed stores join the transaction
// carried in ctx so the event commits with the state change it describes.
type Store interface {
	Append(ctx context.Context, event Event) error
}
