// Package store persists societies, profiles and membership relations.
//
// Both implementations return sentinel errors; the service layer translates
// them into domain errors.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"habitat/internal/membership/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded store used by tests and the memory backend.
type InMemory struct {
	mu              sync.RWMutex
	societies       map[id.SocietyID]*models.Society
	residents       map[id.UserID]*models.Resident
	providers       map[id.ProviderID]*models.Provider
	providersByUser map[id.UserID]id.ProviderID
	services        map[id.ServiceID]*models.Service
	members         map[id.SocietyID]map[id.UserID]time.Time
	listings        map[id.SocietyID]map[id.ProviderID]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		societies:       make(map[id.SocietyID]*models.Society),
		residents:       make(map[id.UserID]*models.Resident),
		providers:       make(map[id.ProviderID]*models.Provider),
		providersByUser: make(map[id.UserID]id.ProviderID),
		services:        make(map[id.ServiceID]*models.Service),
		members:         make(map[id.SocietyID]map[id.UserID]time.Time),
		listings:        make(map[id.SocietyID]map[id.ProviderID]time.Time),
	}
}

func (s *InMemory) CreateSociety(_ context.Context, society *models.Society) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.societies[society.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.societies {
		if existing.Name == society.Name {
			return sentinel.ErrConflict
		}
	}
	copied := *society
	s.societies[society.ID] = &copied
	return nil
}

func (s *InMemory) CreateResident(_ context.Context, resident *models.Resident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.residents[resident.UserID]; ok {
		return sentinel.ErrConflict
	}
	copied := *resident
	s.residents[resident.UserID] = &copied
	return nil
}

func (s *InMemory) CreateService(_ context.Context, svc *models.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.services[svc.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *svc
	s.services[svc.ID] = &copied
	return nil
}

func (s *InMemory) CreateProvider(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.providers[provider.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.providersByUser[provider.UserID]; ok {
		return sentinel.ErrConflict
	}
	for _, svc := range provider.Services {
		if _, ok := s.services[svc]; !ok {
			return sentinel.ErrNotFound
		}
	}
	s.providers[provider.ID] = cloneProvider(provider)
	s.providersByUser[provider.UserID] = provider.ID
	return nil
}

// AddMember records an approved membership directly. Used for seeding only;
// governance goes through CommitMembership.
func (s *InMemory) AddMember(ctx context.Context, societyID id.SocietyID, userID id.UserID) error {
	return s.CommitMembership(ctx, societyID, userID)
}

func (s *InMemory) FindSociety(_ context.Context, societyID id.SocietyID) (*models.Society, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	society, ok := s.societies[societyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *society
	return &copied, nil
}

func (s *InMemory) FindResident(_ context.Context, userID id.UserID) (*models.Resident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resident, ok := s.residents[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *resident
	return &copied, nil
}

func (s *InMemory) FindProvider(_ context.Context, providerID id.ProviderID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProvider(provider), nil
}

func (s *InMemory) FindProviderByUser(_ context.Context, userID id.UserID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	providerID, ok := s.providersByUser[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProvider(s.providers[providerID]), nil
}

// ListSocieties returns every society ordered by name.
func (s *InMemory) ListSocieties(_ context.Context) ([]*models.SocietyDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.SocietyDetails, 0, len(s.societies))
	for _, society := range s.societies {
		out = append(out, s.detailsLocked(society))
	}
	sortDetails(out)
	return out, nil
}

// ListSocietiesForMember returns the societies userID is an approved member of.
func (s *InMemory) ListSocietiesForMember(_ context.Context, userID id.UserID) ([]*models.SocietyDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SocietyDetails
	for societyID, members := range s.members {
		if _, ok := members[userID]; ok {
			out = append(out, s.detailsLocked(s.societies[societyID]))
		}
	}
	sortDetails(out)
	return out, nil
}

// ListSocietiesForProvider returns the societies providerID is listed in.
func (s *InMemory) ListSocietiesForProvider(_ context.Context, providerID id.ProviderID) ([]*models.SocietyDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.SocietyDetails
	for societyID, listed := range s.listings {
		if _, ok := listed[providerID]; ok {
			out = append(out, s.detailsLocked(s.societies[societyID]))
		}
	}
	sortDetails(out)
	return out, nil
}

func (s *InMemory) IsApprovedMember(_ context.Context, userID id.UserID, societyID id.SocietyID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[societyID][userID]
	return ok, nil
}

func (s *InMemory) CountApprovedMembers(_ context.Context, societyID id.SocietyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members[societyID]), nil
}

func (s *InMemory) IsListed(_ context.Context, societyID id.SocietyID, providerID id.ProviderID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.listings[societyID][providerID]
	return ok, nil
}

// CommitMembership makes userID an approved member. Repeating it is a no-op.
func (s *InMemory) CommitMembership(_ context.Context, societyID id.SocietyID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.societies[societyID]; !ok {
		return sentinel.ErrNotFound
	}
	if _, ok := s.residents[userID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.members[societyID] == nil {
		s.members[societyID] = make(map[id.UserID]time.Time)
	}
	if _, ok := s.members[societyID][userID]; !ok {
		s.members[societyID][userID] = time.Now()
	}
	return nil
}

// CommitListing lists providerID in the society and marks the provider
// approved. Repeating it is a no-op.
func (s *InMemory) CommitListing(_ context.Context, societyID id.SocietyID, providerID id.ProviderID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.societies[societyID]; !ok {
		return sentinel.ErrNotFound
	}
	provider, ok := s.providers[providerID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if s.listings[societyID] == nil {
		s.listings[societyID] = make(map[id.ProviderID]time.Time)
	}
	if _, ok := s.listings[societyID][providerID]; !ok {
		s.listings[societyID][providerID] = time.Now()
	}
	if !provider.Approved {
		provider.Approved = true
		provider.UpdatedAt = time.Now()
	}
	return nil
}

// ListListedProviders returns approved providers listed in the society,
// optionally narrowed to those offering serviceID.
func (s *InMemory) ListListedProviders(_ context.Context, societyID id.SocietyID, serviceID *id.ServiceID) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Provider
	for providerID := range s.listings[societyID] {
		provider := s.providers[providerID]
		if !provider.Approved {
			continue
		}
		if serviceID != nil && !provider.OffersService(*serviceID) {
			continue
		}
		out = append(out, cloneProvider(provider))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ServiceCategoryCounts counts approved listed providers per service in the
// society. Services with no providers are included with a zero count.
func (s *InMemory) ServiceCategoryCounts(_ context.Context, societyID id.SocietyID) ([]*models.ServiceCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[id.ServiceID]int, len(s.services))
	for providerID := range s.listings[societyID] {
		provider := s.providers[providerID]
		if !provider.Approved {
			continue
		}
		for _, svc := range provider.Services {
			counts[svc]++
		}
	}
	out := make([]*models.ServiceCategory, 0, len(s.services))
	for svcID, svc := range s.services {
		out = append(out, &models.ServiceCategory{Service: *svc, ApprovedProviderCount: counts[svcID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) detailsLocked(society *models.Society) *models.SocietyDetails {
	return &models.SocietyDetails{Society: *society, ResidentCount: len(s.members[society.ID])}
}

func sortDetails(list []*models.SocietyDetails) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}

func cloneProvider(p *models.Provider) *models.Provider {
	copied := *p
	copied.Services = append([]id.ServiceID(nil), p.Services...)
	return &copied
}
