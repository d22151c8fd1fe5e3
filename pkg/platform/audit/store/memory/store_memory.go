package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	id "habitat/pkg/domain"
	audit "habitat/pkg/platform/audit"
)

// InMemoryStore keeps audit events and their outbox state in process. It
// backs the memory storage mode and tests.
type InMemoryStore struct {
	mu        sync.RWMutex
	events    []audit.Event
	outbox    []audit.OutboxEntry
	published map[string]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{published: make(map[string]bool)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.outbox = nil
	s.published = make(map[string]bool)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Category = audit.AuditEvent(event.Action).Category()
	entry, err := audit.NewOutboxEntry(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.outbox = append(s.outbox, entry)
	return nil
}

// ListByVotingRequest returns the trail of one voting request in append order.
func (s *InMemoryStore) ListByVotingRequest(_ context.Context, requestID id.RequestID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.VotingRequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns all audit events in append order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// CountAction returns how many events with action were recorded.
func (s *InMemoryStore) CountAction(action audit.AuditEvent) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.events {
		if e.Action == string(action) {
			n++
		}
	}
	return n
}

func (s *InMemoryStore) FetchUnpublished(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.OutboxEntry
	for _, e := range s.outbox {
		if s.published[e.ID] {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entryID := range ids {
		s.published[entryID] = true
	}
	return nil
}
