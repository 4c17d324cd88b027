package backups

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// Handler exposes backup endpoints.
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

// MountRoutes registers the scoped backup routes under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermBackupsView))
		r.Get("/backups", h.list)
		r.Get("/backups/stats", h.stats)
		r.Get("/company/{companyID}/backups", h.list)
		r.Get("/backup-settings", h.settings)
		r.Get("/company/{companyID}/backup-settings", h.settings)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermBackupsManage))
		r.Post("/backups", h.create)
		r.Post("/company/{companyID}/backups", h.create)
		r.Post("/backup-settings", h.saveSettings)
		r.Post("/company/{companyID}/backup-settings", h.saveSettings)
	})
}

// MountAdminRoutes registers routes under /api/admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermBackupsSchedule)).Post("/backups/run-scheduled", h.runScheduled)
	r.With(h.rbac.RequireAny(shared.PermPlatformView)).Get("/backups/stats", h.stats)
}

type createRequest struct {
	CompanyID int64 `json:"company_id"`
}

// companyParam resolves the company from the path, then the query string.
func companyParam(r *http.Request) (int64, error) {
	if chi.URLParam(r, "companyID") != "" {
		return httpx.PathID(r, "companyID")
	}
	return httpx.QueryInt64(r.URL.Query(), "company_id")
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	page := shared.ParsePageRequest(q)
	items, pagination, err := h.service.List(r.Context(), principal, companyID, ListFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		h.fail(w, "list backups", err)
		return
	}
	httpx.List(w, items, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if companyID == 0 && r.ContentLength > 0 {
		var req createRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, err)
			return
		}
		companyID = req.CompanyID
	}
	backup, err := h.service.Create(r.Context(), principal, companyID)
	if err != nil {
		h.fail(w, "create backup", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, httpx.Envelope{Success: true, Message: "Backup started", Data: backup})
}

func (h *Handler) settings(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	settings, err := h.service.Settings(r.Context(), principal, companyID)
	if err != nil {
		h.fail(w, "load backup settings", err)
		return
	}
	httpx.OK(w, settings)
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input SettingsInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	settings, err := h.service.SaveSettings(r.Context(), principal, companyID, input)
	if err != nil {
		h.fail(w, "save backup settings", err)
		return
	}
	httpx.Message(w, "Backup settings saved", settings)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	companyID, err := companyParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), principal, companyID)
	if err != nil {
		h.fail(w, "backup stats", err)
		return
	}
	httpx.OK(w, stats)
}

func (h *Handler) runScheduled(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RunScheduled(r.Context())
	if err != nil {
		h.fail(w, "run scheduled backups", err)
		return
	}
	httpx.OK(w, result)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
