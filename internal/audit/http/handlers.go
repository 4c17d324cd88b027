// Package audithttp serves the cross-company audit records.
package audithttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sellapp/sellapp/internal/audit"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// RecordService is the audit query contract.
type RecordService interface {
	List(ctx context.Context, principal shared.Principal, company int64, filter audit.Filter) ([]audit.Record, shared.Pagination, error)
	Export(ctx context.Context, principal shared.Principal, company int64, filter audit.Filter) ([]audit.Record, error)
}

// Handler serves GET /api/admin/company-audit.
type Handler struct {
	logger  *slog.Logger
	service RecordService
	rbac    rbac.Middleware
	now     func() time.Time
}

// NewHandler constructs the audit handler.
func NewHandler(logger *slog.Logger, service RecordService, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, now: time.Now}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	company, err := httpx.QueryInt64(q, "company_id")
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
	filter := audit.Filter{
		Kind:   audit.Kind(q.Get("type")),
		Search: q.Get("search"),
		From:   from,
		To:     to,
		Page:   page.Page,
		Limit:  page.Limit,
	}

	switch q.Get("format") {
	case "":
	case "csv":
		h.exportCSV(w, r, principal, company, filter)
		return
	default:
		httpx.Fail(w, http.StatusBadRequest, "format must be csv")
		return
	}

	records, pagination, err := h.service.List(r.Context(), principal, company, filter)
	if err != nil {
		h.fail(w, "list audit records", err)
		return
	}
	if records == nil {
		records = []audit.Record{}
	}
	httpx.List(w, records, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request, principal shared.Principal, company int64, filter audit.Filter) {
	records, err := h.service.Export(r.Context(), principal, company, filter)
	if err != nil {
		h.fail(w, "export audit records", err)
		return
	}
	var buf bytes.Buffer
	if err := audit.WriteRecordsCSV(&buf, records); err != nil {
		h.fail(w, "encode audit csv", err)
		return
	}
	name := fmt.Sprintf("company-audit-%s.csv", h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write audit csv", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
