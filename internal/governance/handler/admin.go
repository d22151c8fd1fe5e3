package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"habitat/internal/governance/service"
	"habitat/pkg/platform/httputil"
	"habitat/pkg/requestcontext"
)

// Maintenance is the operator surface of the engine.
type Maintenance interface {
	SweepExpired(ctx context.Context) (int, error)
	ReconcileCommits(ctx context.Context) (int, error)
	ListPendingCommits(ctx context.Context) ([]*service.PendingCommitView, error)
}

// AdminHandler serves /admin/governance. Mount it behind the admin token.
type AdminHandler struct {
	maintenance Maintenance
	logger      *slog.Logger
}

func NewAdmin(maintenance Maintenance, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{maintenance: maintenance, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Post("/admin/governance/sweep", h.HandleSweep)
	r.Post("/admin/governance/reconcile", h.HandleReconcile)
	r.Get("/admin/governance/pending-commits", h.HandlePendingCommits)
}

// HandleSweep handles POST /admin/governance/sweep.
func (h *AdminHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "sweep", h.maintenance.SweepExpired)
}

// HandleReconcile handles POST /admin/governance/reconcile.
func (h *AdminHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "reconcile", h.maintenance.ReconcileCommits)
}

// HandlePendingCommits handles GET /admin/governance/pending-commits.
func (h *AdminHandler) HandlePendingCommits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.maintenance.ListPendingCommits(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list pending commits",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPendingCommitResponses(list))
}

func (h *AdminHandler) run(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) (int, error)) {
	ctx := r.Context()
	n, err := fn(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "admin maintenance run failed",
			"request_id", requestcontext.RequestID(ctx),
			"job", name,
			"count", n,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "admin maintenance run",
		"request_id", requestcontext.RequestID(ctx),
		"job", name,
		"count", n,
	)
	httputil.WriteJSON(w, http.StatusOK, SweepResponse{Count: n})
}
