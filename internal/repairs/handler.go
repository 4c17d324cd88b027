package repairs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// Handler exposes repair endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes under /api/repairs.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermRepairsView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(shared.PermRepairsEdit)).Post("/{id}/status", h.updateStatus)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	companyID, err := httpx.QueryInt64(q, "company_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.ParsePageRequest(q)
	items, pagination, err := h.service.List(r.Context(), principal, companyID, ListFilter{
		Status: Status(q.Get("status")),
		Search: q.Get("search"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		h.logger.Debug("list repairs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.List(w, items, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input StatusInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	repair, err := h.service.UpdateStatus(r.Context(), principal, id, input)
	if err != nil {
		if httpx.StatusFor(err) == http.StatusInternalServerError {
			h.logger.Error("update repair status", slog.Int64("repair_id", id), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, "Repair status updated", repair)
}
