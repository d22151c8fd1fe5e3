package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"habitat/internal/governance/models"
	"habitat/internal/governance/service"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/httputil"
	"habitat/pkg/platform/middleware/auth"
	"habitat/pkg/requestcontext"
)

// Service is the governance engine and query facade as used over HTTP.
type Service interface {
	ResolveSubject(ctx context.Context, t models.RequestType, user id.UserID) (models.Subject, error)
	CreateRequest(ctx context.Context, cmd service.CreateCommand) (*models.VotingRequest, error)
	CastVote(ctx context.Context, requestID id.RequestID, voter id.UserID, decision models.Decision) (*models.VotingRequest, error)
	Project(ctx context.Context, r *models.VotingRequest, viewer id.UserID) (*service.RequestView, error)
	ListVotableRequests(ctx context.Context, voter id.UserID) ([]*service.RequestView, error)
	ListInitiatedRequests(ctx context.Context, initiator id.UserID) ([]*service.RequestView, error)
	GetRequest(ctx context.Context, requestID id.RequestID, viewer id.UserID) (*service.RequestView, error)
}

// Handler serves the /voting-requests routes.
type Handler struct {
	service      Service
	logger       *slog.Logger
	writeLimiter func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithWriteLimiter wraps the create and vote routes, typically with a rate
// limiter.
func WithWriteLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.writeLimiter = mw
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		writeLimiter: func(next http.Handler) http.Handler { return next },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts governance endpoints. Callers mount it behind auth.
func (h *Handler) Register(r chi.Router) {
	residentsOnly := auth.RequireRole(h.logger, requestcontext.RoleResident)

	r.With(h.writeLimiter).Post("/voting-requests", h.HandleCreate)
	r.With(residentsOnly, h.writeLimiter).Post("/voting-requests/{id}/votes", h.HandleVote)
	r.With(residentsOnly).Get("/voting-requests/votable", h.HandleVotable)
	r.Get("/voting-requests/initiated", h.HandleInitiated)
	r.Get("/voting-requests/{id}", h.HandleGet)
}

// HandleCreate handles POST /voting-requests. The caller is always both the
// initiator and the subject.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateVotingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if !roleMayInitiate(session.Role, req.requestType) {
		h.fail(ctx, w, "role cannot initiate request type",
			dErrors.New(dErrors.CodeForbidden, "role cannot initiate this request type"))
		return
	}

	subject, err := h.service.ResolveSubject(ctx, req.requestType, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to resolve request subject", err)
		return
	}
	created, err := h.service.CreateRequest(ctx, service.CreateCommand{
		Type:        req.requestType,
		SocietyID:   req.societyID,
		Subject:     subject,
		InitiatedBy: session.UserID,
	})
	if err != nil {
		h.fail(ctx, w, "failed to create voting request", err)
		return
	}
	view, err := h.service.Project(ctx, created, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to render voting request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(view))
}

// HandleVote handles POST /voting-requests/{id}/votes.
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CastVoteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	updated, err := h.service.CastVote(ctx, requestID, session.UserID, req.decision)
	if err != nil {
		h.fail(ctx, w, "failed to cast vote", err)
		return
	}
	view, err := h.service.Project(ctx, updated, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to render voting request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(view))
}

// HandleVotable handles GET /voting-requests/votable.
func (h *Handler) HandleVotable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListVotableRequests(ctx, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to list votable requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponses(list))
}

// HandleInitiated handles GET /voting-requests/initiated.
func (h *Handler) HandleInitiated(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListInitiatedRequests(ctx, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to list initiated requests", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponses(list))
}

// HandleGet handles GET /voting-requests/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	requestID, err := id.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.service.GetRequest(ctx, requestID, session.UserID)
	if err != nil {
		h.fail(ctx, w, "failed to get voting request", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(view))
}

func roleMayInitiate(role requestcontext.Role, t models.RequestType) bool {
	switch t {
	case models.RequestTypeResidentJoin:
		return role == requestcontext.RoleResident
	case models.RequestTypeProviderListing:
		return role == requestcontext.RoleProvider
	default:
		return false
	}
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (requestcontext.SessionInfo, bool) {
	session := requestcontext.Session(r.Context())
	if !session.Authenticated() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return session, false
	}
	return session, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
