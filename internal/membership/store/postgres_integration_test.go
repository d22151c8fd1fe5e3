//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"habitat/internal/membership/models"
	"habitat/internal/membership/store"
	"habitat/internal/platform/postgres"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
	txcontext "habitat/pkg/platform/tx"
	"habitat/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"votes", "voting_requests", "society_providers", "society_members",
		"provider_services", "providers", "services", "residents", "societies")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedSociety(name string) *models.Society {
	society, err := models.NewSociety(id.SocietyID(uuid.New()), name, "addr", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSociety(context.Background(), society))
	return society
}

func (s *PostgresStoreSuite) TestMembershipRoundTrip() {
	ctx := context.Background()
	society := s.seedSociety("Green Acres")
	resident, err := models.NewResident(id.UserID(uuid.New()), "Asha", "123", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateResident(ctx, resident))

	s.Run("commit is idempotent", func() {
		s.Require().NoError(s.store.CommitMembership(ctx, society.ID, resident.UserID))
		s.Require().NoError(s.store.CommitMembership(ctx, society.ID, resident.UserID))

		count, err := s.store.CountApprovedMembers(ctx, society.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("member societies carry resident counts", func() {
		list, err := s.store.ListSocietiesForMember(ctx, resident.UserID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(1, list[0].ResidentCount)
	})

	s.Run("unknown resident is not found", func() {
		err := s.store.CommitMembership(ctx, society.ID, id.UserID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate society name conflicts", func() {
		dup, err := models.NewSociety(id.SocietyID(uuid.New()), "Green Acres", "", time.Now().UTC())
		s.Require().NoError(err)
		s.ErrorIs(s.store.CreateSociety(ctx, dup), sentinel.ErrConflict)
	})
}

func (s *PostgresStoreSuite) TestListingAndCategories() {
	ctx := context.Background()
	society := s.seedSociety("Lake View")
	plumbing := &models.Service{ID: id.ServiceID(uuid.New()), Name: "Plumbing"}
	painting := &models.Service{ID: id.ServiceID(uuid.New()), Name: "Painting"}
	s.Require().NoError(s.store.CreateService(ctx, plumbing))
	s.Require().NoError(s.store.CreateService(ctx, painting))

	provider, err := models.NewProvider(id.ProviderID(uuid.New()), id.UserID(uuid.New()), "Fixit", "555", []id.ServiceID{plumbing.ID}, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateProvider(ctx, provider))

	s.Run("listing inside a rolled back tx leaves nothing behind", func() {
		tx, err := s.postgres.DB.BeginTx(ctx, nil)
		s.Require().NoError(err)
		s.Require().NoError(s.store.CommitListing(txcontext.WithTx(ctx, tx), society.ID, provider.ID))
		s.Require().NoError(tx.Rollback())

		listed, err := s.store.IsListed(ctx, society.ID, provider.ID)
		s.Require().NoError(err)
		s.False(listed)
	})

	s.Run("commit listing approves the provider", func() {
		s.Require().NoError(s.store.CommitListing(ctx, society.ID, provider.ID))
		found, err := s.store.FindProvider(ctx, provider.ID)
		s.Require().NoError(err)
		s.True(found.Approved)
		s.Equal([]id.ServiceID{plumbing.ID}, found.Services)
	})

	s.Run("providers filtered by service", func() {
		list, err := s.store.ListListedProviders(ctx, society.ID, &plumbing.ID)
		s.Require().NoError(err)
		s.Len(list, 1)

		list, err = s.store.ListListedProviders(ctx, society.ID, &painting.ID)
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("category counts include empty services", func() {
		categories, err := s.store.ServiceCategoryCounts(ctx, society.ID)
		s.Require().NoError(err)
		s.Require().Len(categories, 2)
		s.Equal("Painting", categories[0].Name)
		s.Equal(0, categories[0].ApprovedProviderCount)
		s.Equal(1, categories[1].ApprovedProviderCount)
	})
}
