// Package service is the governance engine. It creates voting requests,
// records votes under a per-request lock, resolves them against the quorum
// policy and commits approved memberships. Read-side projections live in
// queries.go.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"habitat/internal/governance/lock"
	"habitat/internal/governance/metrics"
	"habitat/internal/governance/models"
	mmodels "habitat/internal/membership/models"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/audit"
	"habitat/pkg/platform/circuit"
	"habitat/pkg/platform/sentinel"
)

const (
	DefaultVotingWindow       = 72 * time.Hour
	DefaultEscalationAttempts = 5
	defaultLockTimeout        = 5 * time.Second
)

// Store persists voting requests. Implementations return sentinel errors.
type Store interface {
	Create(ctx context.Context, r *models.VotingRequest) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.VotingRequest, error)
	FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*models.VotingRequest, error)
	AppendVote(ctx context.Context, requestID id.RequestID, vote models.Vote) error
	Update(ctx context.Context, r *models.VotingRequest) error
	ListPendingBySocieties(ctx context.Context, societies []id.SocietyID) ([]*models.VotingRequest, error)
	ListByInitiator(ctx context.Context, user id.UserID) ([]*models.VotingRequest, error)
	ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]id.RequestID, error)
	ListPendingCommit(ctx context.Context) ([]*models.VotingRequest, error)
	PendingSocietiesForProvider(ctx context.Context, providerID id.ProviderID) ([]id.SocietyID, error)
}

// MembershipStore is the identity and membership collaborator. The commit
// methods must be idempotent.
type MembershipStore interface {
	FindSociety(ctx context.Context, societyID id.SocietyID) (*mmodels.Society, error)
	FindResident(ctx context.Context, userID id.UserID) (*mmodels.Resident, error)
	FindProvider(ctx context.Context, providerID id.ProviderID) (*mmodels.Provider, error)
	FindProviderByUser(ctx context.Context, userID id.UserID) (*mmodels.Provider, error)
	ListSocietiesForMember(ctx context.Context, userID id.UserID) ([]*mmodels.SocietyDetails, error)
	IsApprovedMember(ctx context.Context, userID id.UserID, societyID id.SocietyID) (bool, error)
	CountApprovedMembers(ctx context.Context, societyID id.SocietyID) (int, error)
	IsListed(ctx context.Context, societyID id.SocietyID, providerID id.ProviderID) (bool, error)
	CommitMembership(ctx context.Context, societyID id.SocietyID, userID id.UserID) error
	CommitListing(ctx context.Context, societyID id.SocietyID, providerID id.ProviderID) error
}

// TxRunner runs fn as one unit of work. Stores join it through ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the governance engine and query facade.
type Service struct {
	store          Store
	members        MembershipStore
	tx             TxRunner
	locker         lock.Locker
	policy         models.QuorumPolicy
	window         time.Duration
	escalateAt     int
	auditPublisher AuditPublisher
	breaker        *circuit.Breaker
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		s.locker = l
	}
}

func WithPolicy(p models.QuorumPolicy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func WithVotingWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

// WithEscalationAttempts sets how many failed commits escalate a request.
func WithEscalationAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.escalateAt = n
		}
	}
}

// WithCommitBreaker guards the membership write made while a vote is cast.
// While the circuit is open those commits are deferred to reconciliation,
// which always tries the write and closes the circuit once it succeeds.
func WithCommitBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs the engine. Without options it uses an in-process lock
// table, no transactions, the majority policy and a 72h window.
func New(store Store, members MembershipStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		members:    members,
		tx:         passThroughTx{},
		locker:     lock.NewKeyedLocker(defaultLockTimeout),
		policy:     models.NewMajorityPolicy(""),
		window:     DefaultVotingWindow,
		escalateAt: DefaultEscalationAttempts,
		logger:     slog.Default(),
		tracer:     otel.Tracer("habitat/internal/governance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the active quorum policy.
func (s *Service) Policy() models.QuorumPolicy {
	return s.policy
}

type passThroughTx struct{}

func (passThroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) acquire(ctx context.Context, key string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		if errors.Is(err, sentinel.ErrLockTimeout) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "voting request is busy, retry")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire lock")
	}
	return unlock, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requestNotFound() error {
	return dErrors.NewReason(dErrors.CodeNotFound, models.ReasonRequestNotFound, "voting request not found")
}

func notEligible() error {
	return dErrors.NewReason(dErrors.CodeForbidden, models.ReasonNotEligibleVoter, "caller is not an eligible voter for this request")
}

func duplicateVote() error {
	return dErrors.NewReason(dErrors.CodeConflict, models.ReasonDuplicateVote, "voter has already voted on this request")
}

// asDomain passes domain errors through and wraps anything else as internal.
func asDomain(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
