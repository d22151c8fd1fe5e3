package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store   *InMemory
	ctx     context.Context
	now     time.Time
	society id.SocietyID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.society = id.SocietyID(uuid.New())
}

func (s *InMemoryStoreSuite) newRequest(subject models.Subject, t models.RequestType, createdAt time.Time) *models.VotingRequest {
	r, err := models.NewVotingRequest(id.NewRequestID(), t, s.society, subject, subject.UserID, "v1", createdAt, 72*time.Hour)
	s.Require().NoError(err)
	return r
}

func (s *InMemoryStoreSuite) TestCreate() {
	user := id.UserID(uuid.New())
	first := s.newRequest(models.ResidentSubject(user), models.RequestTypeResidentJoin, s.now)
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("second open request for the same subject conflicts", func() {
		dup := s.newRequest(models.ResidentSubject(user), models.RequestTypeResidentJoin, s.now)
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("allowed again once the first is terminal", func() {
		first.Status = models.StatusRejected
		s.Require().NoError(s.store.Update(s.ctx, first))

		again := s.newRequest(models.ResidentSubject(user), models.RequestTypeResidentJoin, s.now)
		s.NoError(s.store.Create(s.ctx, again))
	})
}

func (s *InMemoryStoreSuite) TestVotes() {
	r := s.newRequest(models.ResidentSubject(id.UserID(uuid.New())), models.RequestTypeResidentJoin, s.now)
	s.Require().NoError(s.store.Create(s.ctx, r))
	voter := id.UserID(uuid.New())

	s.Require().NoError(s.store.AppendVote(s.ctx, r.ID, models.Vote{VoterID: voter, Decision: models.DecisionApprove, CastAt: s.now}))
	s.ErrorIs(s.store.AppendVote(s.ctx, r.ID, models.Vote{VoterID: voter, Decision: models.DecisionReject, CastAt: s.now}), sentinel.ErrConflict)
	s.ErrorIs(s.store.AppendVote(s.ctx, id.NewRequestID(), models.Vote{VoterID: voter}), sentinel.ErrNotFound)

	found, err := s.store.FindByID(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(models.Tally{Approved: 1}, found.Tally())
}

func (s *InMemoryStoreSuite) TestUpdateRefusesLeavingTerminal() {
	r := s.newRequest(models.ResidentSubject(id.UserID(uuid.New())), models.RequestTypeResidentJoin, s.now)
	s.Require().NoError(s.store.Create(s.ctx, r))
	r.Status = models.StatusExpired
	s.Require().NoError(s.store.Update(s.ctx, r))

	r.Status = models.StatusPending
	s.ErrorIs(s.store.Update(s.ctx, r), sentinel.ErrInvalidState)
}

func (s *InMemoryStoreSuite) TestListings() {
	initiator := id.UserID(uuid.New())
	older := s.newRequest(models.ResidentSubject(initiator), models.RequestTypeResidentJoin, s.now)
	provider := id.ProviderID(uuid.New())
	newer := s.newRequest(models.ProviderSubject(provider, initiator), models.RequestTypeProviderListing, s.now.Add(time.Hour))
	s.Require().NoError(s.store.Create(s.ctx, older))
	s.Require().NoError(s.store.Create(s.ctx, newer))

	s.Run("by initiator newest first", func() {
		list, err := s.store.ListByInitiator(s.ctx, initiator)
		s.Require().NoError(err)
		s.Require().Len(list, 2)
		s.Equal(newer.ID, list[0].ID)
	})

	s.Run("pending by society", func() {
		list, err := s.store.ListPendingBySocieties(s.ctx, []id.SocietyID{s.society})
		s.Require().NoError(err)
		s.Len(list, 2)

		list, err = s.store.ListPendingBySocieties(s.ctx, []id.SocietyID{id.SocietyID(uuid.New())})
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("expired ids", func() {
		ids, err := s.store.ListExpiredPendingIDs(s.ctx, s.now.Add(72*time.Hour+time.Minute))
		s.Require().NoError(err)
		s.Equal([]id.RequestID{older.ID}, ids)
	})

	s.Run("pending listings for provider", func() {
		societies, err := s.store.PendingSocietiesForProvider(s.ctx, provider)
		s.Require().NoError(err)
		s.Equal([]id.SocietyID{s.society}, societies)
	})

	s.Run("pending commit", func() {
		s.Require().NoError(newer.MarkPendingCommit(s.now))
		s.Require().NoError(s.store.Update(s.ctx, newer))
		list, err := s.store.ListPendingCommit(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(newer.ID, list[0].ID)
	})
}
