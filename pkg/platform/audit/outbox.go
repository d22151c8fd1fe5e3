package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// OutboxEntry is one audit event waiting to be relayed to the event stream.
type OutboxEntry struct {
	ID        string
	Key       string // partition key: the voting request id
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxSource is read by the relay worker.
type OutboxSource interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []string) error
}

// payload is the JSON structure published to the event stream.
type payload struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	Timestamp       string `json:"timestamp"`
	VotingRequestID string `json:"voting_request_id,omitempty"`
	SocietyID       string `json:"society_id,omitempty"`
	ActorID         string `json:"actor_id,omitempty"`
	Action          string `json:"action"`
	Decision        string `json:"decision,omitempty"`
	Reason          string `json:"reason,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

// NewOutboxEntry encodes event for the outbox. The category is always derived
// from the action.
func NewOutboxEntry(event Event) (OutboxEntry, error) {
	p := payload{
		ID:        event.ID,
		Category:  string(AuditEvent(event.Action).Category()),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
	}
	if !event.VotingRequestID.IsNil() {
		p.VotingRequestID = event.VotingRequestID.String()
	}
	if !event.SocietyID.IsNil() {
		p.SocietyID = event.SocietyID.String()
	}
	if !event.ActorID.IsNil() {
		p.ActorID = event.ActorID.String()
	}
	b, err := json.Marshal(p)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal audit payload: %w", err)
	}
	key := p.VotingRequestID
	if key == "" {
		key = event.ID
	}
	return OutboxEntry{
		ID:        event.ID,
		Key:       key,
		EventType: event.Action,
		Payload:   b,
		CreatedAt: event.Timestamp,
	}, nil
}
