package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"habitat/internal/governance/lock"
	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/audit"
	"habitat/pkg/platform/sentinel"
	"habitat/pkg/requestcontext"
)

const (
	phaseVote      = "vote"
	phaseReconcile = "reconcile"
)

// CreateCommand asks for a new voting request.
type CreateCommand struct {
	Type        models.RequestType
	SocietyID   id.SocietyID
	Subject     models.Subject
	InitiatedBy id.UserID
}

// ResolveSubject derives the subject of a request the user initiates for
// themself: their resident profile for a join, their provider for a listing.
func (s *Service) ResolveSubject(ctx context.Context, t models.RequestType, user id.UserID) (models.Subject, error) {
	switch t {
	case models.RequestTypeResidentJoin:
		if _, err := s.members.FindResident(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.Subject{}, dErrors.New(dErrors.CodeNotFound, "resident profile not found")
			}
			return models.Subject{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
		}
		return models.ResidentSubject(user), nil
	case models.RequestTypeProviderListing:
		provider, err := s.members.FindProviderByUser(ctx, user)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return models.Subject{}, dErrors.New(dErrors.CodeNotFound, "provider profile not found")
			}
			return models.Subject{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		return models.ProviderSubject(provider.ID, user), nil
	default:
		return models.Subject{}, dErrors.New(dErrors.CodeValidation, "unknown request type")
	}
}

// CreateRequest opens a pending voting request. At most one open request
// exists per (type, society, subject).
func (s *Service) CreateRequest(ctx context.Context, cmd CreateCommand) (_ *models.VotingRequest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.CreateRequest", trace.WithAttributes(
		attribute.String("request_type", string(cmd.Type)),
		attribute.String("society.id", cmd.SocietyID.String()),
	))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("create_request", start)

	if !cmd.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "request_type must be resident_join or provider_listing")
	}
	if cmd.InitiatedBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := cmd.Subject.Validate(cmd.Type); err != nil {
		return nil, err
	}
	if err := s.requireSociety(ctx, cmd.SocietyID); err != nil {
		return nil, err
	}
	if err := s.requireSubject(ctx, cmd.Subject); err != nil {
		return nil, err
	}

	unlock, err := s.acquire(ctx, lock.SubjectKey(cmd.Type, cmd.SocietyID, cmd.Subject))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var created *models.VotingRequest
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		already, err := s.isAlreadyIn(ctx, cmd.SocietyID, cmd.Subject)
		if err != nil {
			return err
		}
		if already {
			return dErrors.NewReason(dErrors.CodeConflict, models.ReasonAlreadyMember, "subject already belongs to this society")
		}

		now := requestcontext.Now(ctx)
		r, err := models.NewVotingRequest(id.NewRequestID(), cmd.Type, cmd.SocietyID, cmd.Subject,
			cmd.InitiatedBy, s.policy.Version(), now, s.window)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, r); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.NewReason(dErrors.CodeConflict, models.ReasonDuplicateRequest, "a pending request already exists for this subject")
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "society not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create voting request")
		}
		if err := s.emit(ctx, audit.Event{
			VotingRequestID: r.ID,
			SocietyID:       r.SocietyID,
			ActorID:         cmd.InitiatedBy,
			Action:          string(audit.EventVotingRequestCreated),
			Reason:          string(r.Type),
			Timestamp:       now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, asDomain(err, "failed to create voting request")
	}

	s.metrics.IncRequestCreated(string(created.Type))
	s.logger.InfoContext(ctx, "voting request created",
		"request_id", requestcontext.RequestID(ctx),
		"voting_request_id", created.ID.String(),
		"request_type", created.Type,
		"society_id", created.SocietyID.String(),
		"policy_version", created.PolicyVersion,
		"expiry_time", created.ExpiryTime,
	)
	return created, nil
}

// CastVote records voter's decision and resolves the request when the quorum
// policy says so. An approval that cannot be committed yet still succeeds;
// the request then reads as pending until reconciliation commits it.
func (s *Service) CastVote(ctx context.Context, requestID id.RequestID, voter id.UserID, decision models.Decision) (_ *models.VotingRequest, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.CastVote", trace.WithAttributes(
		attribute.String("voting_request.id", requestID.String()),
		attribute.String("decision", string(decision)),
	))
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("cast_vote", start)

	if !decision.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "decision must be approve or reject")
	}
	if voter.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	unlock, err := s.acquire(ctx, lock.RequestKey(requestID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		result        *models.VotingRequest
		outcome       models.Outcome
		expiredInline bool
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return requestNotFound()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load voting request")
		}
		now := requestcontext.Now(ctx)

		if r.IsExpiredAt(now) {
			// Commit the expiry even though the vote is refused.
			if err := s.expire(ctx, r, now); err != nil {
				return err
			}
			expiredInline = true
			result = r
			return nil
		}
		if r.Status != models.StatusPending {
			return models.ErrNotPending()
		}
		if r.IsExcludedVoter(voter) {
			return notEligible()
		}
		member, err := s.members.IsApprovedMember(ctx, voter, r.SocietyID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check eligibility")
		}
		if !member {
			return notEligible()
		}

		vote, err := r.AppendVote(voter, decision, now)
		if err != nil {
			return err
		}
		if err := s.store.AppendVote(ctx, r.ID, vote); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return duplicateVote()
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
		}

		eligible, err := s.eligibleVoters(ctx, r)
		if err != nil {
			return err
		}
		outcome = s.policy.Evaluate(r.Tally(), eligible)
		switch outcome {
		case models.OutcomeRejected:
			if err := r.MarkRejected(now); err != nil {
				return err
			}
		case models.OutcomeApproved:
			if err := r.MarkPendingCommit(now); err != nil {
				return err
			}
		}
		if err := s.update(ctx, r); err != nil {
			return err
		}

		if err := s.emit(ctx, audit.Event{
			VotingRequestID: r.ID,
			SocietyID:       r.SocietyID,
			ActorID:         voter,
			Action:          string(audit.EventVoteCast),
			Decision:        string(decision),
			Timestamp:       now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		if outcome == models.OutcomeRejected {
			if err := s.emit(ctx, audit.Event{
				VotingRequestID: r.ID,
				SocietyID:       r.SocietyID,
				ActorID:         voter,
				Action:          string(audit.EventVotingRequestRejected),
				Reason:          "quorum",
				Timestamp:       now,
			}); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
			}
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, asDomain(err, "failed to cast vote")
	}

	if expiredInline {
		s.metrics.IncResolution(string(models.StatusExpired))
		s.logger.InfoContext(ctx, "voting request expired on vote attempt",
			"request_id", requestcontext.RequestID(ctx),
			"voting_request_id", requestID.String(),
		)
		return nil, models.ErrNotPending()
	}

	s.metrics.IncVoteCast(string(decision))
	s.logger.InfoContext(ctx, "vote cast",
		"request_id", requestcontext.RequestID(ctx),
		"voting_request_id", result.ID.String(),
		"voter_id", voter.String(),
		"decision", decision,
		"outcome", outcome.String(),
	)

	switch outcome {
	case models.OutcomeRejected:
		s.metrics.IncResolution(string(models.StatusRejected))
	case models.OutcomeApproved:
		s.commitApproval(ctx, result, phaseVote)
	}
	return result, nil
}

// SweepExpired expires every pending request past its expiry and returns how
// many it moved. Running it again finds nothing to do.
func (s *Service) SweepExpired(ctx context.Context) (_ int, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.SweepExpired")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("sweep_expired", start)

	now := requestcontext.Now(ctx)
	ids, err := s.store.ListExpiredPendingIDs(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list expired requests")
	}

	var (
		count int
		errs  []error
	)
	for _, requestID := range ids {
		expired, err := s.expireOne(ctx, requestID, now)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to expire voting request",
				"voting_request_id", requestID.String(),
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		if expired {
			count++
		}
	}

	span.SetAttributes(attribute.Int("expired", count))
	s.metrics.AddSweepExpired(count)
	if count > 0 {
		s.logger.InfoContext(ctx, "expired voting requests swept", "count", count)
	}
	if len(errs) > 0 {
		return count, dErrors.Wrap(errors.Join(errs...), dErrors.CodeInternal, "sweep finished with errors")
	}
	return count, nil
}

func (s *Service) expireOne(ctx context.Context, requestID id.RequestID, now time.Time) (bool, error) {
	unlock, err := s.acquire(ctx, lock.RequestKey(requestID))
	if err != nil {
		return false, err
	}
	defer unlock()

	expired := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		r, err := s.store.FindByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if !r.IsExpiredAt(now) {
			return nil
		}
		if err := s.expire(ctx, r, now); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if expired {
		s.metrics.IncResolution(string(models.StatusExpired))
	}
	return expired, nil
}

// expire moves r to expired and records it. Callers hold the request lock.
func (s *Service) expire(ctx context.Context, r *models.VotingRequest, now time.Time) error {
	if err := r.MarkExpired(now); err != nil {
		return err
	}
	if err := s.update(ctx, r); err != nil {
		return err
	}
	if err := s.emit(ctx, audit.Event{
		VotingRequestID: r.ID,
		SocietyID:       r.SocietyID,
		Action:          string(audit.EventVotingRequestExpired),
		Timestamp:       now,
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

// ReconcileCommits retries the membership write for every request stuck in
// approval_pending_commit and returns how many now committed.
func (s *Service) ReconcileCommits(ctx context.Context) (_ int, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.ReconcileCommits")
	defer func() { endSpan(span, err) }()
	defer s.metrics.ObserveOperation("reconcile_commits", start)

	stuck, err := s.store.ListPendingCommit(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending commits")
	}

	committed := 0
	for _, r := range stuck {
		ok, err := s.reconcileOne(ctx, r.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to reconcile voting request",
				"voting_request_id", r.ID.String(),
				"error", err,
			)
			continue
		}
		if ok {
			committed++
		}
	}

	span.SetAttributes(attribute.Int("committed", committed), attribute.Int("pending", len(stuck)))
	s.metrics.SetPendingCommits(len(stuck) - committed)
	if len(stuck) > 0 {
		s.logger.InfoContext(ctx, "pending commits reconciled",
			"committed", committed,
			"remaining", len(stuck)-committed,
		)
	}
	return committed, nil
}

func (s *Service) reconcileOne(ctx context.Context, requestID id.RequestID) (bool, error) {
	unlock, err := s.acquire(ctx, lock.RequestKey(requestID))
	if err != nil {
		return false, err
	}
	defer unlock()

	r, err := s.store.FindByID(ctx, requestID)
	if err != nil {
		return false, err
	}
	if r.Status != models.StatusApprovalPendingCommit {
		return false, nil
	}
	return s.commitApproval(ctx, r, phaseReconcile), nil
}

// commitApproval writes the membership or listing for an approved request and
// completes it. On failure the request stays in approval_pending_commit with
// the failure recorded. r is updated in place. Callers hold the request lock.
func (s *Service) commitApproval(ctx context.Context, r *models.VotingRequest, phase string) bool {
	if phase == phaseVote && s.breaker != nil && s.breaker.IsOpen() {
		s.metrics.IncCommitFailure(phase)
		s.recordCommitFailure(ctx, r, errCommitDeferred, phase)
		return false
	}

	var committed *models.VotingRequest
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.store.FindByIDForUpdate(ctx, r.ID)
		if err != nil {
			return err
		}
		if cur.Status != models.StatusApprovalPendingCommit {
			committed = cur
			return nil
		}
		if err := s.writeMembership(ctx, cur); err != nil {
			return dErrors.Wrap(err, dErrors.CodeCommitFailure, "membership commit failed")
		}
		now := requestcontext.Now(ctx)
		if err := cur.MarkApproved(now); err != nil {
			return err
		}
		if err := s.update(ctx, cur); err != nil {
			return err
		}
		if err := s.emit(ctx, audit.Event{
			VotingRequestID: cur.ID,
			SocietyID:       cur.SocietyID,
			Action:          string(audit.EventVotingRequestApproved),
			Reason:          phase,
			Timestamp:       now,
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
		}
		committed = cur
		return nil
	})
	s.recordBreaker(ctx, err)
	if err == nil {
		*r = *committed
		if r.Status == models.StatusApproved {
			s.metrics.IncResolution(string(models.StatusApproved))
			s.logger.InfoContext(ctx, "voting request approved",
				"request_id", requestcontext.RequestID(ctx),
				"voting_request_id", r.ID.String(),
				"request_type", r.Type,
				"society_id", r.SocietyID.String(),
				"phase", phase,
			)
		}
		return true
	}

	s.metrics.IncCommitFailure(phase)
	s.recordCommitFailure(ctx, r, err, phase)
	return false
}

var errCommitDeferred = errors.New("membership store circuit open, commit deferred")

func (s *Service) recordBreaker(ctx context.Context, err error) {
	if s.breaker == nil {
		return
	}
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "membership commit circuit closed", "breaker", s.breaker.Name())
		}
		return
	}
	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.WarnContext(ctx, "membership commit circuit opened, deferring commits to reconciliation",
			"breaker", s.breaker.Name(),
		)
	}
}

func (s *Service) writeMembership(ctx context.Context, r *models.VotingRequest) error {
	switch r.Type {
	case models.RequestTypeResidentJoin:
		return s.members.CommitMembership(ctx, r.SocietyID, r.Subject.UserID)
	case models.RequestTypeProviderListing:
		return s.members.CommitListing(ctx, r.SocietyID, r.Subject.ProviderID)
	default:
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown request type")
	}
}

// recordCommitFailure bumps the attempt count, emits commit_failed and, the
// first time the count reaches the escalation threshold, commit_escalated.
func (s *Service) recordCommitFailure(ctx context.Context, r *models.VotingRequest, cause error, phase string) {
	var (
		attempts  int
		escalated bool
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		cur, err := s.store.FindByIDForUpdate(ctx, r.ID)
		if err != nil {
			return err
		}
		if cur.Status != models.StatusApprovalPendingCommit {
			return nil
		}
		now := requestcontext.Now(ctx)
		attempts = cur.RecordCommitFailure(cause, now)
		if attempts >= s.escalateAt && !cur.Escalated {
			cur.Escalated = true
			escalated = true
		}
		if err := s.update(ctx, cur); err != nil {
			return err
		}
		if err := s.emit(ctx, audit.Event{
			VotingRequestID: cur.ID,
			SocietyID:       cur.SocietyID,
			Action:          string(audit.EventCommitFailed),
			Reason:          cur.LastCommitError,
			Timestamp:       now,
		}); err != nil {
			return err
		}
		if escalated {
			if err := s.emit(ctx, audit.Event{
				VotingRequestID: cur.ID,
				SocietyID:       cur.SocietyID,
				Action:          string(audit.EventCommitEscalated),
				Reason:          cur.LastCommitError,
				Timestamp:       now,
			}); err != nil {
				return err
			}
		}
		*r = *cur
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record commit failure",
			"voting_request_id", r.ID.String(),
			"commit_error", cause,
			"error", err,
		)
		return
	}

	s.logger.WarnContext(ctx, "membership commit failed, request awaits reconciliation",
		"request_id", requestcontext.RequestID(ctx),
		"voting_request_id", r.ID.String(),
		"phase", phase,
		"commit_attempts", attempts,
		"error", cause,
	)
	if escalated {
		s.metrics.IncCommitEscalation()
		s.logger.ErrorContext(ctx, "CRITICAL: voting request commit escalated",
			"voting_request_id", r.ID.String(),
			"society_id", r.SocietyID.String(),
			"commit_attempts", attempts,
			"last_commit_error", r.LastCommitError,
		)
	}
}

// eligibleVoters counts approved members of the request's society who may
// vote: everyone but the subject and the initiator.
func (s *Service) eligibleVoters(ctx context.Context, r *models.VotingRequest) (int, error) {
	n, err := s.members.CountApprovedMembers(ctx, r.SocietyID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count members")
	}
	excluded := []id.UserID{r.Subject.UserID}
	if r.InitiatedBy != r.Subject.UserID {
		excluded = append(excluded, r.InitiatedBy)
	}
	for _, user := range excluded {
		member, err := s.members.IsApprovedMember(ctx, user, r.SocietyID)
		if err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
		}
		if member {
			n--
		}
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

func (s *Service) update(ctx context.Context, r *models.VotingRequest) error {
	if err := s.store.Update(ctx, r); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return models.ErrNotPending()
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return requestNotFound()
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update voting request")
	}
	return nil
}

func (s *Service) requireSociety(ctx context.Context, societyID id.SocietyID) error {
	if societyID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "society_id is required")
	}
	if _, err := s.members.FindSociety(ctx, societyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "society not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load society")
	}
	return nil
}

func (s *Service) requireSubject(ctx context.Context, subject models.Subject) error {
	if subject.IsProvider() {
		provider, err := s.members.FindProvider(ctx, subject.ProviderID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "provider not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		if provider.UserID != subject.UserID {
			return dErrors.New(dErrors.CodeValidation, "provider is not owned by the subject user")
		}
		return nil
	}
	if _, err := s.members.FindResident(ctx, subject.UserID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "resident profile not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
	}
	return nil
}

func (s *Service) isAlreadyIn(ctx context.Context, societyID id.SocietyID, subject models.Subject) (bool, error) {
	if subject.IsProvider() {
		listed, err := s.members.IsListed(ctx, societyID, subject.ProviderID)
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check listing")
		}
		return listed, nil
	}
	member, err := s.members.IsApprovedMember(ctx, subject.UserID, societyID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return member, nil
}
