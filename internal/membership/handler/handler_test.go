package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"habitat/internal/membership/models"
	"habitat/internal/membership/service"
	"habitat/internal/membership/store"
	id "habitat/pkg/domain"
	"habitat/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router   chi.Router
	store    *store.InMemory
	society  *models.Society
	resident id.UserID
	plumbing id.ServiceID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()
	s.store = store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var err error
	s.society, err = models.NewSociety(id.SocietyID(uuid.New()), "Green Acres", "1 Elm", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateSociety(ctx, s.society))

	s.resident = id.UserID(uuid.New())
	resident, err := models.NewResident(s.resident, "Asha", "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateResident(ctx, resident))
	s.Require().NoError(s.store.AddMember(ctx, s.society.ID, s.resident))

	s.plumbing = id.ServiceID(uuid.New())
	s.Require().NoError(s.store.CreateService(ctx, &models.Service{ID: s.plumbing, Name: "Plumbing"}))
	provider, err := models.NewProvider(id.ProviderID(uuid.New()), id.UserID(uuid.New()), "Fixit", "555", []id.ServiceID{s.plumbing}, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateProvider(ctx, provider))
	s.Require().NoError(s.store.CommitListing(ctx, s.society.ID, provider.ID))

	s.router = chi.NewRouter()
	New(service.New(s.store), logger).Register(s.router)
}

func (s *HandlerSuite) TestMine() {
	s.Run("requires a session", func() {
		rr := testutil.DoRequest(s.router, httptest.NewRequest(http.MethodGet, "/societies/mine", nil))
		testutil.AssertError(s.T(), rr, http.StatusUnauthorized, "unauthorized", "")
	})

	s.Run("returns the resident's societies", func() {
		req := testutil.AsResident(httptest.NewRequest(http.MethodGet, "/societies/mine", nil), s.resident)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		body := testutil.Decode[[]SocietyResponse](s.T(), rr)
		s.Require().Len(body, 1)
		s.Equal("Green Acres", body[0].Name)
		s.Equal(1, body[0].ResidentCount)
	})
}

func (s *HandlerSuite) TestAvailable() {
	req := testutil.AsResident(httptest.NewRequest(http.MethodGet, "/societies/available", nil), s.resident)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Empty(testutil.Decode[[]SocietyResponse](s.T(), rr))
}

func (s *HandlerSuite) TestProviders() {
	s.Run("filters by service", func() {
		path := "/societies/" + s.society.ID.String() + "/providers?service_id=" + s.plumbing.String()
		req := testutil.AsResident(httptest.NewRequest(http.MethodGet, path, nil), s.resident)
		rr := testutil.DoRequest(s.router, req)
		s.Require().Equal(http.StatusOK, rr.Code)

		body := testutil.Decode[[]ProviderResponse](s.T(), rr)
		s.Require().Len(body, 1)
		s.Equal([]string{s.plumbing.String()}, body[0].Services)
	})

	s.Run("malformed service id", func() {
		path := "/societies/" + s.society.ID.String() + "/providers?service_id=nope"
		req := testutil.AsResident(httptest.NewRequest(http.MethodGet, path, nil), s.resident)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "invalid_input", "")
	})

	s.Run("unknown society", func() {
		path := "/societies/" + uuid.NewString() + "/providers"
		req := testutil.AsResident(httptest.NewRequest(http.MethodGet, path, nil), s.resident)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertError(s.T(), rr, http.StatusNotFound, "not_found", "")
	})
}

func (s *HandlerSuite) TestServiceCategories() {
	path := "/societies/" + s.society.ID.String() + "/service-categories"
	req := testutil.AsResident(httptest.NewRequest(http.MethodGet, path, nil), s.resident)
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rr.Code)

	body := testutil.Decode[[]ServiceCategoryResponse](s.T(), rr)
	s.Require().Len(body, 1)
	s.Equal(1, body[0].ProviderCount)
}
