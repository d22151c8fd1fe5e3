package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/sentinel"
	"habitat/pkg/requestcontext"
)

type SocietySummary struct {
	ID      id.SocietyID
	Name    string
	Address string
}

type ResidentSummary struct {
	UserID id.UserID
	Name   string
}

type ProviderSummary struct {
	ID          id.ProviderID
	Name        string
	ContactInfo string
}

// SubjectView describes the subject. Exactly one of Resident and Provider is
// set, matching Type.
type SubjectView struct {
	Type     models.RequestType
	UserID   id.UserID
	Resident *ResidentSummary
	Provider *ProviderSummary
}

// RequestView is the public projection of a voting request as seen by one
// viewer. Status is the effective public status.
type RequestView struct {
	ID            id.RequestID
	Type          models.RequestType
	Society       SocietySummary
	Subject       SubjectView
	InitiatedBy   id.UserID
	Status        models.Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiryTime    time.Time
	ApprovedVotes int
	RejectedVotes int
	HasVoted      bool
}

// PendingCommitView is an approved request whose membership write is still
// outstanding.
type PendingCommitView struct {
	RequestView
	CommitAttempts  int
	LastCommitError string
	Escalated       bool
}

// ListVotableRequests returns open requests in the voter's societies that
// the voter may vote on. Requests already voted on are included with
// HasVoted set.
func (s *Service) ListVotableRequests(ctx context.Context, voter id.UserID) (_ []*RequestView, err error) {
	ctx, span := s.tracer.Start(ctx, "governance.ListVotableRequests")
	defer func() { endSpan(span, err) }()

	societies, err := s.members.ListSocietiesForMember(ctx, voter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
	}
	if len(societies) == 0 {
		return []*RequestView{}, nil
	}
	ids := make([]id.SocietyID, 0, len(societies))
	for _, society := range societies {
		ids = append(ids, society.ID)
	}
	requests, err := s.store.ListPendingBySocieties(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voting requests")
	}

	now := requestcontext.Now(ctx)
	p := s.newProjector(voter, now)
	out := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		if r.IsExpiredAt(now) || r.IsExcludedVoter(voter) {
			continue
		}
		view, err := p.project(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	return out, nil
}

// ListInitiatedRequests returns every request the user initiated, newest
// first.
func (s *Service) ListInitiatedRequests(ctx context.Context, initiator id.UserID) (_ []*RequestView, err error) {
	ctx, span := s.tracer.Start(ctx, "governance.ListInitiatedRequests")
	defer func() { endSpan(span, err) }()

	requests, err := s.store.ListByInitiator(ctx, initiator)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list voting requests")
	}
	p := s.newProjector(initiator, requestcontext.Now(ctx))
	out := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		view, err := p.project(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// GetRequest returns one request. Only its initiator, its subject and
// approved members of its society may read it.
func (s *Service) GetRequest(ctx context.Context, requestID id.RequestID, viewer id.UserID) (_ *RequestView, err error) {
	ctx, span := s.tracer.Start(ctx, "governance.GetRequest", trace.WithAttributes(
		attribute.String("voting_request.id", requestID.String()),
	))
	defer func() { endSpan(span, err) }()

	r, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, requestNotFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voting request")
	}
	if viewer != r.InitiatedBy && viewer != r.Subject.UserID {
		member, err := s.members.IsApprovedMember(ctx, viewer, r.SocietyID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
		}
		if !member {
			return nil, dErrors.New(dErrors.CodeForbidden, "not allowed to view this voting request")
		}
	}
	return s.newProjector(viewer, requestcontext.Now(ctx)).project(ctx, r)
}

// Project renders r as seen by viewer.
func (s *Service) Project(ctx context.Context, r *models.VotingRequest, viewer id.UserID) (*RequestView, error) {
	return s.newProjector(viewer, requestcontext.Now(ctx)).project(ctx, r)
}

// ListPendingCommits returns approved requests whose membership write has not
// committed, oldest first.
func (s *Service) ListPendingCommits(ctx context.Context) ([]*PendingCommitView, error) {
	requests, err := s.store.ListPendingCommit(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending commits")
	}
	p := s.newProjector(id.UserID{}, requestcontext.Now(ctx))
	out := make([]*PendingCommitView, 0, len(requests))
	for _, r := range requests {
		view, err := p.project(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, &PendingCommitView{
			RequestView:     *view,
			CommitAttempts:  r.CommitAttempts,
			LastCommitError: r.LastCommitError,
			Escalated:       r.Escalated,
		})
	}
	s.metrics.SetPendingCommits(len(out))
	return out, nil
}

// PendingListingSocieties returns societies where the provider has an open
// listing request.
func (s *Service) PendingListingSocieties(ctx context.Context, providerID id.ProviderID) ([]id.SocietyID, error) {
	societies, err := s.store.PendingSocietiesForProvider(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending listings")
	}
	return societies, nil
}

// projector builds views and caches membership lookups for one call.
type projector struct {
	s         *Service
	viewer    id.UserID
	now       time.Time
	societies map[id.SocietyID]SocietySummary
	residents map[id.UserID]*ResidentSummary
	providers map[id.ProviderID]*ProviderSummary
}

func (s *Service) newProjector(viewer id.UserID, now time.Time) *projector {
	return &projector{
		s:         s,
		viewer:    viewer,
		now:       now,
		societies: make(map[id.SocietyID]SocietySummary),
		residents: make(map[id.UserID]*ResidentSummary),
		providers: make(map[id.ProviderID]*ProviderSummary),
	}
}

func (p *projector) project(ctx context.Context, r *models.VotingRequest) (*RequestView, error) {
	society, err := p.society(ctx, r.SocietyID)
	if err != nil {
		return nil, err
	}
	subject := SubjectView{Type: r.Type, UserID: r.Subject.UserID}
	if r.Subject.IsProvider() {
		subject.Provider, err = p.provider(ctx, r.Subject.ProviderID)
	} else {
		subject.Resident, err = p.resident(ctx, r.Subject.UserID)
	}
	if err != nil {
		return nil, err
	}

	tally := r.Tally()
	return &RequestView{
		ID:            r.ID,
		Type:          r.Type,
		Society:       society,
		Subject:       subject,
		InitiatedBy:   r.InitiatedBy,
		Status:        r.EffectiveStatus(p.now),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		ExpiryTime:    r.ExpiryTime,
		ApprovedVotes: tally.Approved,
		RejectedVotes: tally.Rejected,
		HasVoted:      !p.viewer.IsNil() && r.HasVoted(p.viewer),
	}, nil
}

func (p *projector) society(ctx context.Context, societyID id.SocietyID) (SocietySummary, error) {
	if cached, ok := p.societies[societyID]; ok {
		return cached, nil
	}
	summary := SocietySummary{ID: societyID}
	society, err := p.s.members.FindSociety(ctx, societyID)
	switch {
	case err == nil:
		summary.Name = society.Name
		summary.Address = society.Address
	case !errors.Is(err, sentinel.ErrNotFound):
		return SocietySummary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load society")
	}
	p.societies[societyID] = summary
	return summary, nil
}

func (p *projector) resident(ctx context.Context, userID id.UserID) (*ResidentSummary, error) {
	if cached, ok := p.residents[userID]; ok {
		return cached, nil
	}
	summary := &ResidentSummary{UserID: userID}
	resident, err := p.s.members.FindResident(ctx, userID)
	switch {
	case err == nil:
		summary.Name = resident.Name
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
	}
	p.residents[userID] = summary
	return summary, nil
}

func (p *projector) provider(ctx context.Context, providerID id.ProviderID) (*ProviderSummary, error) {
	if cached, ok := p.providers[providerID]; ok {
		return cached, nil
	}
	summary := &ProviderSummary{ID: providerID}
	provider, err := p.s.members.FindProvider(ctx, providerID)
	switch {
	case err == nil:
		summary.Name = provider.Name
		summary.ContactInfo = provider.ContactInfo
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
	}
	p.providers[providerID] = summary
	return summary, nil
}
