package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"habitat/internal/membership/models"
	"habitat/internal/membership/store"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/requestcontext"
)

type stubPending struct {
	societies []id.SocietyID
}

func (p stubPending) PendingListingSocieties(context.Context, id.ProviderID) ([]id.SocietyID, error) {
	return p.societies, nil
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.InMemory
	service  *Service
	pending  *stubPending
	alpha    *models.Society
	beta     *models.Society
	gamma    *models.Society
	resident *models.Resident
	provider *models.Provider
	plumbing *models.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.pending = &stubPending{}
	s.service = New(s.store, WithPendingListings(s.pending))
	now := time.Now()

	mk := func(name string) *models.Society {
		society, err := models.NewSociety(id.SocietyID(uuid.New()), name, "", now)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CreateSociety(s.ctx, society))
		return society
	}
	s.alpha, s.beta, s.gamma = mk("Alpha"), mk("Beta"), mk("Gamma")

	s.plumbing = &models.Service{ID: id.ServiceID(uuid.New()), Name: "Plumbing"}
	s.Require().NoError(s.store.CreateService(s.ctx, s.plumbing))

	var err error
	s.resident, err = models.NewResident(id.UserID(uuid.New()), "Asha", "", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateResident(s.ctx, s.resident))
	s.Require().NoError(s.store.AddMember(s.ctx, s.alpha.ID, s.resident.UserID))

	s.provider, err = models.NewProvider(id.ProviderID(uuid.New()), id.UserID(uuid.New()), "Fixit", "", []id.ServiceID{s.plumbing.ID}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateProvider(s.ctx, s.provider))
	s.Require().NoError(s.store.CommitListing(s.ctx, s.beta.ID, s.provider.ID))
}

func (s *ServiceSuite) residentSession() requestcontext.SessionInfo {
	return requestcontext.SessionInfo{UserID: s.resident.UserID, Role: requestcontext.RoleResident}
}

func (s *ServiceSuite) providerSession() requestcontext.SessionInfo {
	return requestcontext.SessionInfo{UserID: s.provider.UserID, Role: requestcontext.RoleProvider}
}

func names(list []*models.SocietyDetails) []string {
	out := make([]string, 0, len(list))
	for _, society := range list {
		out = append(out, society.Name)
	}
	return out
}

func (s *ServiceSuite) TestMySocieties() {
	s.Run("resident sees memberships", func() {
		list, err := s.service.MySocieties(s.ctx, s.residentSession())
		s.Require().NoError(err)
		s.Equal([]string{"Alpha"}, names(list))
	})

	s.Run("provider sees listings", func() {
		list, err := s.service.MySocieties(s.ctx, s.providerSession())
		s.Require().NoError(err)
		s.Equal([]string{"Beta"}, names(list))
	})

	s.Run("provider without profile sees nothing", func() {
		list, err := s.service.MySocieties(s.ctx, requestcontext.SessionInfo{UserID: id.UserID(uuid.New()), Role: requestcontext.RoleProvider})
		s.Require().NoError(err)
		s.Empty(list)
	})
}

func (s *ServiceSuite) TestAvailableSocieties() {
	s.Run("resident excludes joined societies", func() {
		list, err := s.service.AvailableSocieties(s.ctx, s.residentSession())
		s.Require().NoError(err)
		s.Equal([]string{"Beta", "Gamma"}, names(list))
	})

	s.Run("provider excludes listed and pending societies", func() {
		s.pending.societies = []id.SocietyID{s.gamma.ID}
		defer func() { s.pending.societies = nil }()

		list, err := s.service.AvailableSocieties(s.ctx, s.providerSession())
		s.Require().NoError(err)
		s.Equal([]string{"Alpha"}, names(list))
	})

	s.Run("resident without profile sees nothing", func() {
		list, err := s.service.AvailableSocieties(s.ctx, requestcontext.SessionInfo{UserID: id.UserID(uuid.New()), Role: requestcontext.RoleResident})
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("unknown role is forbidden", func() {
		_, err := s.service.AvailableSocieties(s.ctx, requestcontext.SessionInfo{UserID: s.resident.UserID, Role: "admin"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *ServiceSuite) TestSocietyProviders() {
	s.Run("lists approved providers", func() {
		list, err := s.service.SocietyProviders(s.ctx, s.beta.ID, &s.plumbing.ID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal("Fixit", list[0].Name)
	})

	s.Run("unknown society is not found", func() {
		_, err := s.service.SocietyProviders(s.ctx, id.SocietyID(uuid.New()), nil)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestServiceCategories() {
	list, err := s.service.ServiceCategories(s.ctx, s.beta.ID)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(1, list[0].ApprovedProviderCount)

	list, err = s.service.ServiceCategories(s.ctx, s.alpha.ID)
	s.Require().NoError(err)
	s.Equal(0, list[0].ApprovedProviderCount)
}
