// Package store persists voting requests and their votes.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

// InMemory keeps requests in a map. Returned requests are copies.
type InMemory struct {
	mu       sync.RWMutex
	requests map[id.RequestID]*models.VotingRequest
}

func NewInMemory() *InMemory {
	return &InMemory{requests: make(map[id.RequestID]*models.VotingRequest)}
}

// Create stores a new request. It fails with sentinel.ErrConflict when an
// open request already exists for the same type, society and subject.
func (s *InMemory) Create(_ context.Context, r *models.VotingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.requests {
		if existing.Status.IsOpen() &&
			existing.Type == r.Type &&
			existing.SocietyID == r.SocietyID &&
			existing.Subject == r.Subject {
			return sentinel.ErrConflict
		}
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, requestID id.RequestID) (*models.VotingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return r.Clone(), nil
}

// FindByIDForUpdate is FindByID; callers hold the per-request lock.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*models.VotingRequest, error) {
	return s.FindByID(ctx, requestID)
}

// AppendVote adds a vote. A second vote by the same voter is a conflict.
func (s *InMemory) AppendVote(_ context.Context, requestID id.RequestID, vote models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if r.HasVoted(vote.VoterID) {
		return sentinel.ErrConflict
	}
	r.Votes = append(r.Votes, vote)
	return nil
}

// Update writes the mutable lifecycle fields. Votes are only written by
// AppendVote.
func (s *InMemory) Update(_ context.Context, r *models.VotingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.requests[r.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if existing.Status.IsTerminal() && existing.Status != r.Status {
		return sentinel.ErrInvalidState
	}
	existing.Status = r.Status
	existing.UpdatedAt = r.UpdatedAt
	existing.CommitAttempts = r.CommitAttempts
	existing.LastCommitError = r.LastCommitError
	existing.Escalated = r.Escalated
	if r.ResolvedAt != nil {
		resolved := *r.ResolvedAt
		existing.ResolvedAt = &resolved
	}
	return nil
}

// ListPendingBySocieties returns pending requests in the given societies,
// oldest first.
func (s *InMemory) ListPendingBySocieties(_ context.Context, societies []id.SocietyID) ([]*models.VotingRequest, error) {
	want := make(map[id.SocietyID]struct{}, len(societies))
	for _, societyID := range societies {
		want[societyID] = struct{}{}
	}
	return s.collect(func(r *models.VotingRequest) bool {
		_, ok := want[r.SocietyID]
		return ok && r.Status == models.StatusPending
	}, false), nil
}

// ListByInitiator returns every request initiated by user, newest first.
func (s *InMemory) ListByInitiator(_ context.Context, user id.UserID) ([]*models.VotingRequest, error) {
	return s.collect(func(r *models.VotingRequest) bool {
		return r.InitiatedBy == user
	}, true), nil
}

// ListExpiredPendingIDs returns ids of pending requests past expiry at now.
func (s *InMemory) ListExpiredPendingIDs(_ context.Context, now time.Time) ([]id.RequestID, error) {
	list := s.collect(func(r *models.VotingRequest) bool {
		return r.IsExpiredAt(now)
	}, false)
	ids := make([]id.RequestID, 0, len(list))
	for _, r := range list {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

// ListPendingCommit returns requests whose approval has not committed.
func (s *InMemory) ListPendingCommit(_ context.Context) ([]*models.VotingRequest, error) {
	return s.collect(func(r *models.VotingRequest) bool {
		return r.Status == models.StatusApprovalPendingCommit
	}, false), nil
}

// PendingSocietiesForProvider returns societies with an open listing request
// for the provider.
func (s *InMemory) PendingSocietiesForProvider(_ context.Context, providerID id.ProviderID) ([]id.SocietyID, error) {
	list := s.collect(func(r *models.VotingRequest) bool {
		return r.Type == models.RequestTypeProviderListing &&
			r.Subject.ProviderID == providerID &&
			r.Status.IsOpen()
	}, false)
	out := make([]id.SocietyID, 0, len(list))
	for _, r := range list {
		out = append(out, r.SocietyID)
	}
	return out, nil
}

func (s *InMemory) collect(match func(*models.VotingRequest) bool, newestFirst bool) []*models.VotingRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.VotingRequest
	for _, r := range s.requests {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
