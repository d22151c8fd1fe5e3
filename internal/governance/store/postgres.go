package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"habitat/internal/governance/models"
	"habitat/internal/platform/postgres"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
	txcontext "habitat/pkg/platform/tx"
)

// PostgresStore persists requests in voting_requests and votes. Every method
// joins the transaction in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, request_type, society_id, subject_user_id, subject_provider_id, initiated_by,
	status, policy_version, created_at, updated_at, expiry_time, resolved_at,
	commit_attempts, last_commit_error, escalated`

func (s *PostgresStore) Create(ctx context.Context, r *models.VotingRequest) error {
	var providerID any
	if r.Subject.IsProvider() {
		providerID = uuid.UUID(r.Subject.ProviderID)
	}
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO voting_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		uuid.UUID(r.ID), string(r.Type), uuid.UUID(r.SocietyID), uuid.UUID(r.Subject.UserID), providerID,
		uuid.UUID(r.InitiatedBy), string(r.Status), r.PolicyVersion, r.CreatedAt, r.UpdatedAt,
		r.ExpiryTime, r.ResolvedAt, r.CommitAttempts, r.LastCommitError, r.Escalated)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert voting request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*models.VotingRequest, error) {
	return s.findOne(ctx, `SELECT `+requestColumns+` FROM voting_requests WHERE id = $1`, requestID)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*models.VotingRequest, error) {
	return s.findOne(ctx, `SELECT `+requestColumns+` FROM voting_requests WHERE id = $1 FOR UPDATE`, requestID)
}

func (s *PostgresStore) AppendVote(ctx context.Context, requestID id.RequestID, vote models.Vote) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO votes (request_id, voter_id, decision, cast_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(requestID), uuid.UUID(vote.VoterID), string(vote.Decision), vote.CastAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert vote: %w", err)
	}
	return nil
}

// Update writes the lifecycle fields. A terminal row is never moved to a
// different status.
func (s *PostgresStore) Update(ctx context.Context, r *models.VotingRequest) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE voting_requests
		SET status = $2, updated_at = $3, resolved_at = $4, commit_attempts = $5,
			last_commit_error = $6, escalated = $7
		WHERE id = $1
			AND (status NOT IN ('approved', 'rejected', 'expired') OR status = $2)`,
		uuid.UUID(r.ID), string(r.Status), r.UpdatedAt, r.ResolvedAt, r.CommitAttempts,
		r.LastCommitError, r.Escalated)
	if err != nil {
		return fmt.Errorf("update voting request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update voting request: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, r.ID); err != nil {
			return err
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListPendingBySocieties(ctx context.Context, societies []id.SocietyID) ([]*models.VotingRequest, error) {
	if len(societies) == 0 {
		return nil, nil
	}
	raw := make([]string, len(societies))
	for i, societyID := range societies {
		raw[i] = societyID.String()
	}
	return s.findMany(ctx, `SELECT `+requestColumns+` FROM voting_requests
		WHERE status = 'pending' AND society_id = ANY($1::uuid[])
		ORDER BY created_at`, pq.Array(raw))
}

func (s *PostgresStore) ListByInitiator(ctx context.Context, user id.UserID) ([]*models.VotingRequest, error) {
	return s.findMany(ctx, `SELECT `+requestColumns+` FROM voting_requests
		WHERE initiated_by = $1 ORDER BY created_at DESC`, uuid.UUID(user))
}

func (s *PostgresStore) ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]id.RequestID, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT id FROM voting_requests WHERE status = 'pending' AND expiry_time < $1 ORDER BY expiry_time`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired requests: %w", err)
	}
	defer rows.Close()

	var out []id.RequestID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan expired request: %w", err)
		}
		out = append(out, id.RequestID(raw))
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListPendingCommit(ctx context.Context) ([]*models.VotingRequest, error) {
	return s.findMany(ctx, `SELECT `+requestColumns+` FROM voting_requests
		WHERE status = 'approval_pending_commit' ORDER BY updated_at`)
}

func (s *PostgresStore) PendingSocietiesForProvider(ctx context.Context, providerID id.ProviderID) ([]id.SocietyID, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT society_id FROM voting_requests
		WHERE request_type = 'provider_listing' AND subject_provider_id = $1
			AND status IN ('pending', 'approval_pending_commit')`, uuid.UUID(providerID))
	if err != nil {
		return nil, fmt.Errorf("list pending listings: %w", err)
	}
	defer rows.Close()

	var out []id.SocietyID
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan pending listing: %w", err)
		}
		out = append(out, id.SocietyID(raw))
	}
	return out, rows.Err()
}

func (s *PostgresStore) findOne(ctx context.Context, query string, requestID id.RequestID) (*models.VotingRequest, error) {
	exec := txcontext.Exec(ctx, s.db)
	r, err := scanRequest(exec.QueryRowContext(ctx, query, uuid.UUID(requestID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadVotes(ctx, exec, []*models.VotingRequest{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) findMany(ctx context.Context, query string, args ...any) ([]*models.VotingRequest, error) {
	exec := txcontext.Exec(ctx, s.db)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list voting requests: %w", err)
	}
	var out []*models.VotingRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list voting requests: %w", err)
	}
	rows.Close()

	if err := s.loadVotes(ctx, exec, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) loadVotes(ctx context.Context, exec txcontext.Executor, requests []*models.VotingRequest) error {
	if len(requests) == 0 {
		return nil
	}
	byID := make(map[id.RequestID]*models.VotingRequest, len(requests))
	raw := make([]string, 0, len(requests))
	for _, r := range requests {
		byID[r.ID] = r
		raw = append(raw, r.ID.String())
	}
	rows, err := exec.QueryContext(ctx, `
		SELECT request_id, voter_id, decision, cast_at FROM votes
		WHERE request_id = ANY($1::uuid[])
		ORDER BY cast_at, voter_id`, pq.Array(raw))
	if err != nil {
		return fmt.Errorf("load votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID, voterID uuid.UUID
			decision           string
			castAt             time.Time
		)
		if err := rows.Scan(&requestID, &voterID, &decision, &castAt); err != nil {
			return fmt.Errorf("scan vote: %w", err)
		}
		if r, ok := byID[id.RequestID(requestID)]; ok {
			r.Votes = append(r.Votes, models.Vote{
				VoterID:  id.UserID(voterID),
				Decision: models.Decision(decision),
				CastAt:   castAt,
			})
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.VotingRequest, error) {
	var (
		r                                   models.VotingRequest
		rawID, rawSociety, rawUser, rawInit uuid.UUID
		rawProvider                         uuid.NullUUID
		requestType, status                 string
		resolvedAt                          sql.NullTime
	)
	err := row.Scan(&rawID, &requestType, &rawSociety, &rawUser, &rawProvider, &rawInit,
		&status, &r.PolicyVersion, &r.CreatedAt, &r.UpdatedAt, &r.ExpiryTime, &resolvedAt,
		&r.CommitAttempts, &r.LastCommitError, &r.Escalated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan voting request: %w", err)
	}
	r.ID = id.RequestID(rawID)
	r.Type = models.RequestType(requestType)
	r.SocietyID = id.SocietyID(rawSociety)
	r.Subject = models.Subject{UserID: id.UserID(rawUser)}
	if rawProvider.Valid {
		r.Subject.ProviderID = id.ProviderID(rawProvider.UUID)
	}
	r.InitiatedBy = id.UserID(rawInit)
	r.Status = models.Status(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		r.ResolvedAt = &t
	}
	return &r, nil
}
