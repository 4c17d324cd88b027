package pos

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// Handler exposes the sales history API.
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

// MountRoutes registers routes under /api/pos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSalesView))
		r.Get("/sales", h.list)
		r.Get("/sale/{id}", h.get)
		r.Get("/sale/{id}/payments", h.payments)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPaymentsRecord))
		r.Post("/sale/{id}/payment", h.recordPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSalesEdit))
		r.Post("/sale/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSalesDelete))
		r.Post("/sale/{id}/delete", h.delete)
		r.Post("/sales/bulk-delete", h.bulkDelete)
	})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

type deleteResponse struct {
	Deleted int64 `json:"deleted"`
}

type paymentResponse struct {
	Sale    Sale    `json:"sale"`
	Payment Payment `json:"payment"`
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
	from, err := httpx.QueryDate(q, "from")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.QueryDate(q, "to")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.ParsePageRequest(q)
	sales, pagination, err := h.service.List(r.Context(), principal, companyID, ListFilter{
		From:          from,
		To:            to,
		PaymentStatus: PaymentStatus(q.Get("payment_status")),
		PaymentMethod: q.Get("payment_method"),
		Search:        q.Get("search"),
		Page:          page.Page,
		Limit:         page.Limit,
	})
	if err != nil {
		h.fail(w, "list sales", err)
		return
	}
	httpx.List(w, sales, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	sale, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.fail(w, "get sale", err)
		return
	}
	httpx.OK(w, sale)
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	payments, err := h.service.Payments(r.Context(), principal, id)
	if err != nil {
		h.fail(w, "list payments", err)
		return
	}
	httpx.OK(w, payments)
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input PaymentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, payment, err := h.service.RecordPayment(r.Context(), principal, id, input)
	if err != nil {
		h.fail(w, "record payment", err)
		return
	}
	httpx.Message(w, "Payment recorded", paymentResponse{Sale: sale, Payment: payment})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sale, err := h.service.Update(r.Context(), principal, id, input)
	if err != nil {
		h.fail(w, "update sale", err)
		return
	}
	httpx.Message(w, "Sale updated", sale)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.fail(w, "delete sale", err)
		return
	}
	httpx.Message(w, "Sale deleted", deleteResponse{Deleted: 1})
}

func (h *Handler) bulkDelete(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req bulkDeleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	deleted, err := h.service.BulkDelete(r.Context(), principal, req.IDs)
	if err != nil {
		h.fail(w, "bulk delete sales", err)
		return
	}
	httpx.Message(w, "Sales deleted", deleteResponse{Deleted: deleted})
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
