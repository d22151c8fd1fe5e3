package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"habitat/internal/membership/models"
	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/httputil"
	"habitat/pkg/requestcontext"
)

// Service defines the membership queries served over HTTP.
type Service interface {
	MySocieties(ctx context.Context, session requestcontext.SessionInfo) ([]*models.SocietyDetails, error)
	AvailableSocieties(ctx context.Context, session requestcontext.SessionInfo) ([]*models.SocietyDetails, error)
	SocietyProviders(ctx context.Context, societyID id.SocietyID, serviceID *id.ServiceID) ([]*models.Provider, error)
	ServiceCategories(ctx context.Context, societyID id.SocietyID) ([]*models.ServiceCategory, error)
}

// Handler serves the /societies routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts membership endpoints. Callers mount it behind auth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/societies/mine", h.HandleMine)
	r.Get("/societies/available", h.HandleAvailable)
	r.Get("/societies/{id}/providers", h.HandleProviders)
	r.Get("/societies/{id}/service-categories", h.HandleServiceCategories)
}

// HandleMine handles GET /societies/mine.
func (h *Handler) HandleMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.service.MySocieties(ctx, session)
	if err != nil {
		h.fail(ctx, w, "failed to list member societies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSocietyResponses(list))
}

// HandleAvailable handles GET /societies/available.
func (h *Handler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	list, err := h.service.AvailableSocieties(ctx, session)
	if err != nil {
		h.fail(ctx, w, "failed to list available societies", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSocietyResponses(list))
}

// HandleProviders handles GET /societies/{id}/providers?service_id=.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var serviceID *id.ServiceID
	if raw := r.URL.Query().Get("service_id"); raw != "" {
		parsed, err := id.ParseServiceID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		serviceID = &parsed
	}
	list, err := h.service.SocietyProviders(ctx, societyID, serviceID)
	if err != nil {
		h.fail(ctx, w, "failed to list society providers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProviderResponses(list))
}

// HandleServiceCategories handles GET /societies/{id}/service-categories.
func (h *Handler) HandleServiceCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	societyID, err := id.ParseSocietyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.service.ServiceCategories(ctx, societyID)
	if err != nil {
		h.fail(ctx, w, "failed to list service categories", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCategoryResponses(list))
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
