// Package service answers membership queries: which societies a caller
// belongs to, which they may apply to, and who is listed where.
package service

import (
	"context"
	"errors"
	"log/slog"

	"habitat/internal/membership/models"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/sentinel"
	"habitat/pkg/requestcontext"
)

type Store interface {
	FindSociety(ctx context.Context, societyID id.SocietyID) (*models.Society, error)
	FindResident(ctx context.Context, userID id.UserID) (*models.Resident, error)
	FindProviderByUser(ctx context.Context, userID id.UserID) (*models.Provider, error)
	ListSocieties(ctx context.Context) ([]*models.SocietyDetails, error)
	ListSocietiesForMember(ctx context.Context, userID id.UserID) ([]*models.SocietyDetails, error)
	ListSocietiesForProvider(ctx context.Context, providerID id.ProviderID) ([]*models.SocietyDetails, error)
	ListListedProviders(ctx context.Context, societyID id.SocietyID, serviceID *id.ServiceID) ([]*models.Provider, error)
	ServiceCategoryCounts(ctx context.Context, societyID id.SocietyID) ([]*models.ServiceCategory, error)
}

// PendingListings reports societies where a provider already has an open
// listing request.
type PendingListings interface {
	PendingListingSocieties(ctx context.Context, providerID id.ProviderID) ([]id.SocietyID, error)
}

// Service serves read-side membership queries.
type Service struct {
	store   Store
	pending PendingListings
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPendingListings hides societies with an open listing request from a
// provider's available list.
func WithPendingListings(p PendingListings) Option {
	return func(s *Service) {
		s.pending = p
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MySocieties returns the societies the caller belongs to: memberships for a
// resident, listings for a provider.
func (s *Service) MySocieties(ctx context.Context, session requestcontext.SessionInfo) ([]*models.SocietyDetails, error) {
	switch session.Role {
	case requestcontext.RoleResident:
		list, err := s.store.ListSocietiesForMember(ctx, session.UserID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
		}
		return list, nil
	case requestcontext.RoleProvider:
		provider, err := s.store.FindProviderByUser(ctx, session.UserID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return []*models.SocietyDetails{}, nil
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		list, err := s.store.ListSocietiesForProvider(ctx, provider.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
		}
		return list, nil
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "unsupported role")
	}
}

// AvailableSocieties returns societies the caller could apply to. A caller
// without a profile for their role has none.
func (s *Service) AvailableSocieties(ctx context.Context, session requestcontext.SessionInfo) ([]*models.SocietyDetails, error) {
	exclude := make(map[id.SocietyID]struct{})

	switch session.Role {
	case requestcontext.RoleResident:
		if _, err := s.store.FindResident(ctx, session.UserID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				s.logger.DebugContext(ctx, "caller has no resident profile",
					"user_id", session.UserID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				return []*models.SocietyDetails{}, nil
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
		}
		mine, err := s.store.ListSocietiesForMember(ctx, session.UserID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
		}
		for _, society := range mine {
			exclude[society.ID] = struct{}{}
		}
	case requestcontext.RoleProvider:
		provider, err := s.store.FindProviderByUser(ctx, session.UserID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return []*models.SocietyDetails{}, nil
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load provider")
		}
		listed, err := s.store.ListSocietiesForProvider(ctx, provider.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
		}
		for _, society := range listed {
			exclude[society.ID] = struct{}{}
		}
		if s.pending != nil {
			pending, err := s.pending.PendingListingSocieties(ctx, provider.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load pending listings")
			}
			for _, societyID := range pending {
				exclude[societyID] = struct{}{}
			}
		}
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "unsupported role")
	}

	all, err := s.store.ListSocieties(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list societies")
	}
	out := make([]*models.SocietyDetails, 0, len(all))
	for _, society := range all {
		if _, skip := exclude[society.ID]; !skip {
			out = append(out, society)
		}
	}
	return out, nil
}

// SocietyProviders lists approved providers in a society, optionally only
// those offering serviceID.
func (s *Service) SocietyProviders(ctx context.Context, societyID id.SocietyID, serviceID *id.ServiceID) ([]*models.Provider, error) {
	if err := s.requireSociety(ctx, societyID); err != nil {
		return nil, err
	}
	list, err := s.store.ListListedProviders(ctx, societyID, serviceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list providers")
	}
	return list, nil
}

// ServiceCategories lists every service with its provider count in the society.
func (s *Service) ServiceCategories(ctx context.Context, societyID id.SocietyID) ([]*models.ServiceCategory, error) {
	if err := s.requireSociety(ctx, societyID); err != nil {
		return nil, err
	}
	list, err := s.store.ServiceCategoryCounts(ctx, societyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count services")
	}
	return list, nil
}

func (s *Service) requireSociety(ctx context.Context, societyID id.SocietyID) error {
	if _, err := s.store.FindSociety(ctx, societyID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "society not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load society")
	}
	return nil
}
