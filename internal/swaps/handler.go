package swaps

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// Handler exposes swap endpoints.
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

// MountRoutes registers routes under /api/swaps.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSwapsView))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSwapsEdit))
		r.Post("/", h.create)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/resell", h.resell)
		r.Post("/sync-to-inventory", h.sync)
	})
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
		Status:       Status(q.Get("status")),
		ResaleStatus: ResaleStatus(q.Get("resale_status")),
		Search:       q.Get("search"),
		Page:         page.Page,
		Limit:        page.Limit,
	})
	if err != nil {
		h.fail(w, "list swaps", err)
		return
	}
	httpx.List(w, items, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	swap, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.fail(w, "get swap", err)
		return
	}
	httpx.OK(w, swap)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	swap, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		h.fail(w, "create swap", err)
		return
	}
	httpx.Created(w, swap)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.fail(w, "delete swap", err)
		return
	}
	httpx.Message(w, "Swap deleted", nil)
}

func (h *Handler) resell(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input ResellInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	swap, err := h.service.Resell(r.Context(), principal, id, input)
	if err != nil {
		h.fail(w, "resell swap", err)
		return
	}
	httpx.Message(w, "Swap marked as resold", swap)
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input SyncInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	swap, err := h.service.SyncToInventory(r.Context(), principal, input)
	if err != nil {
		h.fail(w, "sync swap to inventory", err)
		return
	}
	httpx.Message(w, "Product added to inventory", swap)
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (shared.Principal, int64, bool) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return shared.Principal{}, 0, false
	}
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return shared.Principal{}, 0, false
	}
	return principal, id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
