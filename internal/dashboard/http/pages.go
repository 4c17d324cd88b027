package dashboardhttp

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sellapp/sellapp/internal/dashboard"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/internal/view"
)

type adminPageData struct {
	Overview    dashboard.AdminOverview
	Performance template.HTML
	Trend       dashboard.ChartSVG
}

type managerPageData struct {
	Overview dashboard.ManagerOverview
	Charts   dashboard.ChartSVG
}

func (h *Handler) adminPage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	overview, err := h.service.AdminOverview(r.Context(), req.principal, req.rng)
	if err != nil {
		h.pageError(w, "admin overview", err)
		return
	}
	data := adminPageData{Overview: overview}
	if data.Performance, err = dashboard.RenderPerformance(overview.Performance); err != nil {
		h.logger.Warn("render performance chart", slog.Any("error", err))
	}
	if data.Trend, err = dashboard.RenderCharts(dashboard.ChartData{Range: overview.Range, Trend: overview.Analytics.Trend}); err != nil {
		h.logger.Warn("render trend chart", slog.Any("error", err))
	}
	h.render(w, r, req.principal, "pages/dashboard_admin.html", "Platform", data)
}

func (h *Handler) managerPage(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parse(w, r)
	if !ok {
		return
	}
	overview, err := h.service.ManagerOverview(r.Context(), req.principal, req.company, req.rng)
	if err != nil {
		h.pageError(w, "manager overview", err)
		return
	}
	data := managerPageData{Overview: overview}
	// charts are only drawn while the module is on
	if overview.Charts != nil {
		if data.Charts, err = dashboard.RenderCharts(*overview.Charts); err != nil {
			h.logger.Warn("render manager charts", slog.Any("error", err))
		}
	}
	h.render(w, r, req.principal, "pages/dashboard_manager.html", "Dashboard", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, principal shared.Principal, name, title string, data any) {
	var (
		token string
		flash *shared.FlashMessage
	)
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		flash = sess.PopFlash()
		if h.csrf != nil {
			token, _ = h.csrf.EnsureToken(r.Context(), sess)
		}
	}
	err := h.templates.Render(w, http.StatusOK, name, view.TemplateData{
		Title:       title,
		CSRFToken:   token,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        &principal,
		Data:        data,
	})
	if err != nil {
		h.logger.Error("render dashboard page", slog.String("template", name), slog.Any("error", err))
	}
}

func (h *Handler) pageError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
