package dashboardhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/shared"
)

// MountAdminRoutes registers the platform endpoints under /api/admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermPlatformView))
		r.Get("/stats", h.adminStats)
		r.Get("/platform-metrics", h.platformMetrics)
		r.Get("/analytics", h.analytics)
		r.Get("/company-performance", h.companyPerformance)
	})
}

// MountRoutes registers the manager endpoints under /api/dashboard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermDashboardView))
		r.Get("/manager-overview", h.managerOverview)
		r.Get("/company-metrics", h.companyMetrics)
		r.Get("/stats", h.managerStats)
		r.Get("/charts-data", h.chartsData)
		r.Get("/recent-sales", h.recentSales)
		r.Get("/inventory-alerts", h.inventoryAlerts)
		r.Get("/modules", h.modules)
	})
	r.With(h.rbac.RequireAny(shared.PermDashboardManage)).Post("/toggle-module", h.toggleModule)
	r.With(h.rbac.RequireAny(shared.PermDashboardExport)).Get("/export", h.export)
}

// MountPages registers the HTML dashboards under /dashboard.
func (h *Handler) MountPages(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermPlatformView)).Get("/admin", h.adminPage)
	r.With(h.rbac.RequireAny(shared.PermDashboardView)).Get("/manager", h.managerPage)
}
