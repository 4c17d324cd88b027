// Package dashboardhttp serves the admin and manager dashboards.
package dashboardhttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sellapp/sellapp/internal/dashboard"
	"github.com/sellapp/sellapp/internal/dashboard/export"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/internal/view"
)

const exportTimeout = 30 * time.Second

// Handler coordinates the dashboard HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *dashboard.Service
	exporter  *export.Exporter
	templates *view.Engine
	csrf      *shared.CSRFManager
	rbac      rbac.Middleware
}

// NewHandler constructs the dashboard handler. templates and csrf are only
// needed by the HTML pages.
func NewHandler(logger *slog.Logger, service *dashboard.Service, exporter *export.Exporter, templates *view.Engine, csrf *shared.CSRFManager, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exporter: exporter, templates: templates, csrf: csrf, rbac: rbac}
}

// request carries what every dashboard endpoint parses.
type request struct {
	principal shared.Principal
	company   int64
	rng       dashboard.Range
	limit     int
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) (request, bool) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return request{}, false
	}
	q := r.URL.Query()
	company, err := httpx.QueryInt64(q, "company_id")
	if err != nil {
		httpx.RespondError(w, err)
		return request{}, false
	}
	rng, err := dashboard.ParseRange(q, h.service.Now())
	if err != nil {
		httpx.RespondError(w, err)
		return request{}, false
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	return request{principal: principal, company: company, rng: rng, limit: limit}, true
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	stats, err := h.service.AdminStats(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "admin stats", err)
		return
	}
	httpx.OK(w, stats)
}

func (h *Handler) platformMetrics(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	metrics, err := h.service.PlatformMetrics(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "platform metrics", err)
		return
	}
	httpx.OK(w, metrics)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	data, err := h.service.Analytics(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "admin analytics", err)
		return
	}
	httpx.OK(w, data)
}

func (h *Handler) companyPerformance(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	rows, err := h.service.CompanyPerformance(r.Context(), req.principal, req.rng, req.limit)
	if err != nil {
		h.fail(w, "company performance", err)
		return
	}
	httpx.OK(w, rows)
}

func (h *Handler) managerOverview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	overview, err := h.service.ManagerOverview(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "manager overview", err)
		return
	}
	httpx.OK(w, overview)
}

func (h *Handler) companyMetrics(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	metrics, err := h.service.CompanyMetrics(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "company metrics", err)
		return
	}
	httpx.OK(w, metrics)
}

func (h *Handler) managerStats(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	stats, err := h.service.ManagerStats(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "manager stats", err)
		return
	}
	httpx.OK(w, stats)
}

type chartsResponse struct {
	Enabled bool                `json:"enabled"`
	Charts  *dashboard.ChartData `json:"charts,omitempty"`
}

func (h *Handler) chartsData(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	data, err := h.service.ChartData(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "charts data", err)
		return
	}
	httpx.OK(w, chartsResponse{Enabled: data != nil, Charts: data})
}

func (h *Handler) recentSales(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	sales, err := h.service.RecentSales(r.Context(), req.principal, req.company, req.limit)
	if err != nil {
		h.fail(w, "recent sales", err)
		return
	}
	httpx.OK(w, sales)
}

func (h *Handler) inventoryAlerts(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	alerts, err := h.service.InventoryAlerts(r.Context(), req.principal, req.company, req.limit)
	if err != nil {
		h.fail(w, "inventory alerts", err)
		return
	}
	httpx.OK(w, alerts)
}

func (h *Handler) modules(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	set, err := h.service.Modules(r.Context(), req.principal, req.company)
	if err != nil {
		h.fail(w, "dashboard modules", err)
		return
	}
	httpx.OK(w, set)
}

func (h *Handler) toggleModule(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input dashboard.ToggleInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	set, err := h.service.ToggleModule(r.Context(), principal, input)
	if err != nil {
		h.fail(w, "toggle module", err)
		return
	}
	httpx.Message(w, "Module updated", set)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = export.FormatCSV
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()

	report, err := h.service.Report(ctx, req.principal, req.company, req.rng)
	if err != nil {
		h.fail(w, "dashboard report", err)
		return
	}
	file, err := export.Describe(format, report)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.Write(ctx, &buf, format, report); err != nil {
		h.fail(w, "dashboard export", err)
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("stream dashboard export", slog.Any("error", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if httpx.StatusFor(err) == http.StatusInternalServerError {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
