package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"habitat/internal/membership/models"
	"habitat/internal/platform/postgres"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
	txcontext "habitat/pkg/platform/tx"
)

// PostgresStore persists membership data. Writes join the transaction carried
// in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const societyDetailsSelect = `
	SELECT s.id, s.name, s.address, s.created_at,
		(SELECT COUNT(*) FROM society_members m WHERE m.society_id = s.id)
	FROM societies s`

func (s *PostgresStore) CreateSociety(ctx context.Context, society *models.Society) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO societies (id, name, address, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(society.ID), society.Name, society.Address, society.CreatedAt)
	return translateWriteErr(err, "create society")
}

func (s *PostgresStore) CreateResident(ctx context.Context, resident *models.Resident) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO residents (user_id, name, phone, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(resident.UserID), resident.Name, resident.Phone, resident.CreatedAt)
	return translateWriteErr(err, "create resident")
}

func (s *PostgresStore) CreateService(ctx context.Context, svc *models.Service) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx,
		`INSERT INTO services (id, name) VALUES ($1, $2)`,
		uuid.UUID(svc.ID), svc.Name)
	return translateWriteErr(err, "create service")
}

func (s *PostgresStore) CreateProvider(ctx context.Context, provider *models.Provider) error {
	exec := txcontext.Exec(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO providers (id, user_id, name, contact_info, brief_note, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(provider.ID), uuid.UUID(provider.UserID), provider.Name, provider.ContactInfo,
		provider.BriefNote, provider.Approved, provider.CreatedAt, provider.UpdatedAt)
	if err := translateWriteErr(err, "create provider"); err != nil {
		return err
	}
	if len(provider.Services) == 0 {
		return nil
	}
	serviceIDs := make([]string, len(provider.Services))
	for i, svc := range provider.Services {
		serviceIDs[i] = svc.String()
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO provider_services (provider_id, service_id)
		SELECT $1, unnest($2::uuid[])`,
		uuid.UUID(provider.ID), pq.Array(serviceIDs))
	return translateWriteErr(err, "link provider services")
}

// AddMember records an approved membership directly. Used for seeding only.
func (s *PostgresStore) AddMember(ctx context.Context, societyID id.SocietyID, userID id.UserID) error {
	return s.CommitMembership(ctx, societyID, userID)
}

func (s *PostgresStore) FindSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error) {
	var (
		society models.Society
		rawID   uuid.UUID
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, name, address, created_at FROM societies WHERE id = $1`, uuid.UUID(societyID),
	).Scan(&rawID, &society.Name, &society.Address, &society.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find society: %w", err)
	}
	society.ID = id.SocietyID(rawID)
	return &society, nil
}

func (s *PostgresStore) FindResident(ctx context.Context, userID id.UserID) (*models.Resident, error) {
	var (
		resident models.Resident
		rawID    uuid.UUID
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT user_id, name, phone, created_at FROM residents WHERE user_id = $1`, uuid.UUID(userID),
	).Scan(&rawID, &resident.Name, &resident.Phone, &resident.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find resident: %w", err)
	}
	resident.UserID = id.UserID(rawID)
	return &resident, nil
}

const providerSelect = `
	SELECT p.id, p.user_id, p.name, p.contact_info, p.brief_note, p.approved, p.created_at, p.updated_at,
		COALESCE(array_agg(ps.service_id::text) FILTER (WHERE ps.service_id IS NOT NULL), '{}')
	FROM providers p
	LEFT JOIN provider_services ps ON ps.provider_id = p.id`

func (s *PostgresStore) FindProvider(ctx context.Context, providerID id.ProviderID) (*models.Provider, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		providerSelect+` WHERE p.id = $1 GROUP BY p.id`, uuid.UUID(providerID))
	return scanProvider(row)
}

func (s *PostgresStore) FindProviderByUser(ctx context.Context, userID id.UserID) (*models.Provider, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		providerSelect+` WHERE p.user_id = $1 GROUP BY p.id`, uuid.UUID(userID))
	return scanProvider(row)
}

func (s *PostgresStore) ListSocieties(ctx context.Context) ([]*models.SocietyDetails, error) {
	return s.querySocieties(ctx, societyDetailsSelect+` ORDER BY s.name`)
}

func (s *PostgresStore) ListSocietiesForMember(ctx context.Context, userID id.UserID) ([]*models.SocietyDetails, error) {
	return s.querySocieties(ctx, societyDetailsSelect+`
		WHERE EXISTS (SELECT 1 FROM society_members m WHERE m.society_id = s.id AND m.user_id = $1)
		ORDER BY s.name`, uuid.UUID(userID))
}

func (s *PostgresStore) ListSocietiesForProvider(ctx context.Context, providerID id.ProviderID) ([]*models.SocietyDetails, error) {
	return s.querySocieties(ctx, societyDetailsSelect+`
		WHERE EXISTS (SELECT 1 FROM society_providers sp WHERE sp.society_id = s.id AND sp.provider_id = $1)
		ORDER BY s.name`, uuid.UUID(providerID))
}

func (s *PostgresStore) IsApprovedMember(ctx context.Context, userID id.UserID, societyID id.SocietyID) (bool, error) {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM society_members WHERE society_id = $1 AND user_id = $2)`,
		uuid.UUID(societyID), uuid.UUID(userID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CountApprovedMembers(ctx context.Context, societyID id.SocietyID) (int, error) {
	var count int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM society_members WHERE society_id = $1`, uuid.UUID(societyID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) IsListed(ctx context.Context, societyID id.SocietyID, providerID id.ProviderID) (bool, error) {
	var exists bool
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM society_providers WHERE society_id = $1 AND provider_id = $2)`,
		uuid.UUID(societyID), uuid.UUID(providerID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check listing: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CommitMembership(ctx context.Context, societyID id.SocietyID, userID id.UserID) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO society_members (society_id, user_id) VALUES ($1, $2)
		ON CONFLICT (society_id, user_id) DO NOTHING`,
		uuid.UUID(societyID), uuid.UUID(userID))
	return translateWriteErr(err, "commit membership")
}

func (s *PostgresStore) CommitListing(ctx context.Context, societyID id.SocietyID, providerID id.ProviderID) error {
	exec := txcontext.Exec(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO society_providers (society_id, provider_id) VALUES ($1, $2)
		ON CONFLICT (society_id, provider_id) DO NOTHING`,
		uuid.UUID(societyID), uuid.UUID(providerID))
	if err := translateWriteErr(err, "commit listing"); err != nil {
		return err
	}
	_, err = exec.ExecContext(ctx,
		`UPDATE providers SET approved = TRUE, updated_at = now() WHERE id = $1 AND NOT approved`,
		uuid.UUID(providerID))
	if err != nil {
		return fmt.Errorf("approve provider: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListListedProviders(ctx context.Context, societyID id.SocietyID, serviceID *id.ServiceID) ([]*models.Provider, error) {
	query := providerSelect + `
		JOIN society_providers sp ON sp.provider_id = p.id
		WHERE sp.society_id = $1 AND p.approved`
	args := []any{uuid.UUID(societyID)}
	if serviceID != nil {
		query += ` AND EXISTS (SELECT 1 FROM provider_services f WHERE f.provider_id = p.id AND f.service_id = $2)`
		args = append(args, uuid.UUID(*serviceID))
	}
	query += ` GROUP BY p.id ORDER BY p.name`

	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ServiceCategoryCounts(ctx context.Context, societyID id.SocietyID) ([]*models.ServiceCategory, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT sv.id, sv.name, COUNT(p.id)
		FROM services sv
		LEFT JOIN provider_services ps ON ps.service_id = sv.id
		LEFT JOIN society_providers sp ON sp.provider_id = ps.provider_id AND sp.society_id = $1
		LEFT JOIN providers p ON p.id = sp.provider_id AND p.approved
		GROUP BY sv.id, sv.name
		ORDER BY sv.name`, uuid.UUID(societyID))
	if err != nil {
		return nil, fmt.Errorf("count service categories: %w", err)
	}
	defer rows.Close()

	var out []*models.ServiceCategory
	for rows.Next() {
		var (
			category models.ServiceCategory
			rawID    uuid.UUID
		)
		if err := rows.Scan(&rawID, &category.Name, &category.ApprovedProviderCount); err != nil {
			return nil, fmt.Errorf("scan service category: %w", err)
		}
		category.ID = id.ServiceID(rawID)
		out = append(out, &category)
	}
	return out, rows.Err()
}

func (s *PostgresStore) querySocieties(ctx context.Context, query string, args ...any) ([]*models.SocietyDetails, error) {
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list societies: %w", err)
	}
	defer rows.Close()

	var out []*models.SocietyDetails
	for rows.Next() {
		var (
			details models.SocietyDetails
			rawID   uuid.UUID
		)
		if err := rows.Scan(&rawID, &details.Name, &details.Address, &details.CreatedAt, &details.ResidentCount); err != nil {
			return nil, fmt.Errorf("scan society: %w", err)
		}
		details.ID = id.SocietyID(rawID)
		out = append(out, &details)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	var (
		provider      models.Provider
		rawID, rawUID uuid.UUID
		services      []string
	)
	err := row.Scan(&rawID, &rawUID, &provider.Name, &provider.ContactInfo, &provider.BriefNote,
		&provider.Approved, &provider.CreatedAt, &provider.UpdatedAt, pq.Array(&services))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan provider: %w", err)
	}
	provider.ID = id.ProviderID(rawID)
	provider.UserID = id.UserID(rawUID)
	for _, raw := range services {
		svc, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse provider service: %w", err)
		}
		provider.Services = append(provider.Services, id.ServiceID(svc))
	}
	return &provider, nil
}

// translateWriteErr maps unique and foreign key violations to sentinels.
func translateWriteErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if postgres.IsForeignKeyViolation(err) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
