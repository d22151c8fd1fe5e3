package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"habitat/internal/membership/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store    *InMemory
	ctx      context.Context
	society  *models.Society
	resident *models.Resident
	plumbing *models.Service
	provider *models.Provider
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	now := time.Now()

	s.plumbing = &models.Service{ID: id.ServiceID(uuid.New()), Name: "Plumbing"}
	s.Require().NoError(s.store.CreateService(s.ctx, s.plumbing))

	var err error
	s.society, err = models.NewSociety(id.SocietyID(uuid.New()), "Green Acres", "1 Elm St", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSociety(s.ctx, s.society))

	s.resident, err = models.NewResident(id.UserID(uuid.New()), "Asha", "", now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateResident(s.ctx, s.resident))

	s.provider, err = models.NewProvider(id.ProviderID(uuid.New()), id.UserID(uuid.New()), "Fixit", "555", []id.ServiceID{s.plumbing.ID}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateProvider(s.ctx, s.provider))
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("duplicate society name conflicts", func() {
		dup, err := models.NewSociety(id.SocietyID(uuid.New()), "Green Acres", "", time.Now())
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreateSociety(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("second provider for same user conflicts", func() {
		other, err := models.NewProvider(id.ProviderID(uuid.New()), s.provider.UserID, "Other", "", nil, time.Now())
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreateProvider(s.ctx, other), sentinel.ErrConflict)
	})

	s.Run("provider with unknown service is rejected", func() {
		other, err := models.NewProvider(id.ProviderID(uuid.New()), id.UserID(uuid.New()), "Other", "", []id.ServiceID{id.ServiceID(uuid.New())}, time.Now())
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreateProvider(s.ctx, other), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestFind() {
	s.Run("missing society", func() {
		_, err := s.store.FindSociety(s.ctx, id.SocietyID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("provider by owner", func() {
		found, err := s.store.FindProviderByUser(s.ctx, s.provider.UserID)
		s.Require().NoError(err)
		s.Equal(s.provider.ID, found.ID)
		s.Equal([]id.ServiceID{s.plumbing.ID}, found.Services)
	})

	s.Run("returned copies do not alias stored records", func() {
		found, err := s.store.FindProvider(s.ctx, s.provider.ID)
		s.Require().NoError(err)
		found.Approved = true
		found.Services[0] = id.ServiceID(uuid.New())

		again, err := s.store.FindProvider(s.ctx, s.provider.ID)
		s.Require().NoError(err)
		s.False(again.Approved)
		s.Equal(s.plumbing.ID, again.Services[0])
	})
}

func (s *InMemoryStoreSuite) TestCommitMembership() {
	s.Run("makes the resident an approved member", func() {
		s.Require().NoError(s.store.CommitMembership(s.ctx, s.society.ID, s.resident.UserID))

		ok, err := s.store.IsApprovedMember(s.ctx, s.resident.UserID, s.society.ID)
		s.Require().NoError(err)
		s.True(ok)

		count, err := s.store.CountApprovedMembers(s.ctx, s.society.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("is idempotent", func() {
		s.Require().NoError(s.store.CommitMembership(s.ctx, s.society.ID, s.resident.UserID))
		count, err := s.store.CountApprovedMembers(s.ctx, s.society.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("unknown society", func() {
		s.ErrorIs(s.store.CommitMembership(s.ctx, id.SocietyID(uuid.New()), s.resident.UserID), sentinel.ErrNotFound)
	})

	s.Run("lists member societies with resident counts", func() {
		list, err := s.store.ListSocietiesForMember(s.ctx, s.resident.UserID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(s.society.ID, list[0].ID)
		s.Equal(1, list[0].ResidentCount)
	})
}

func (s *InMemoryStoreSuite) TestCommitListing() {
	s.Require().NoError(s.store.CommitListing(s.ctx, s.society.ID, s.provider.ID))
	s.Require().NoError(s.store.CommitListing(s.ctx, s.society.ID, s.provider.ID))

	s.Run("approves and lists the provider", func() {
		listed, err := s.store.IsListed(s.ctx, s.society.ID, s.provider.ID)
		s.Require().NoError(err)
		s.True(listed)

		found, err := s.store.FindProvider(s.ctx, s.provider.ID)
		s.Require().NoError(err)
		s.True(found.Approved)
	})

	s.Run("filters providers by service", func() {
		all, err := s.store.ListListedProviders(s.ctx, s.society.ID, nil)
		s.Require().NoError(err)
		s.Len(all, 1)

		other := id.ServiceID(uuid.New())
		none, err := s.store.ListListedProviders(s.ctx, s.society.ID, &other)
		s.Require().NoError(err)
		s.Empty(none)
	})

	s.Run("counts providers per service", func() {
		categories, err := s.store.ServiceCategoryCounts(s.ctx, s.society.ID)
		s.Require().NoError(err)
		s.Require().Len(categories, 1)
		s.Equal("Plumbing", categories[0].Name)
		s.Equal(1, categories[0].ApprovedProviderCount)
	})

	s.Run("lists provider societies", func() {
		list, err := s.store.ListSocietiesForProvider(s.ctx, s.provider.ID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(s.society.Name, list[0].Name)
	})
}

func TestSeed(t *testing.T) {
	const doc = `{
		"services": [{"id": "5a1f0f8e-5d1c-4a43-9a3c-111111111111", "name": "Plumbing"}],
		"societies": [{
			"id": "5a1f0f8e-5d1c-4a43-9a3c-222222222222",
			"name": "Green Acres",
			"address": "1 Elm St",
			"members": ["5a1f0f8e-5d1c-4a43-9a3c-333333333333"]
		}],
		"residents": [{"user_id": "5a1f0f8e-5d1c-4a43-9a3c-333333333333", "name": "Asha"}],
		"providers": [{
			"id": "5a1f0f8e-5d1c-4a43-9a3c-444444444444",
			"user_id": "5a1f0f8e-5d1c-4a43-9a3c-555555555555",
			"name": "Fixit",
			"services": ["5a1f0f8e-5d1c-4a43-9a3c-111111111111"],
			"listed_in": ["5a1f0f8e-5d1c-4a43-9a3c-222222222222"]
		}]
	}`
	ctx := context.Background()
	st := NewInMemory()

	stats, err := Seed(ctx, st, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := SeedStats{Services: 1, Societies: 1, Residents: 1, Providers: 1, Members: 1, Listings: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	again, err := Seed(ctx, st, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again.Societies != 0 || again.Providers != 0 {
		t.Fatalf("reseed created records: %+v", again)
	}

	count, _ := st.CountApprovedMembers(ctx, id.SocietyID(uuid.MustParse("5a1f0f8e-5d1c-4a43-9a3c-222222222222")))
	if count != 1 {
		t.Fatalf("member count = %d, want 1", count)
	}
}
