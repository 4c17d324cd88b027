package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/sellapp/sellapp/internal/audit/http"
	"github.com/sellapp/sellapp/internal/auth"
	"github.com/sellapp/sellapp/internal/backups"
	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/companies"
	dashboardhttp "github.com/sellapp/sellapp/internal/dashboard/http"
	"github.com/sellapp/sellapp/internal/observability"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/pos"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/repairs"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/internal/swaps"
	"github.com/sellapp/sellapp/jobs"
	"github.com/sellapp/sellapp/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Authenticator  *auth.Authenticator
	Metrics        *observability.Metrics
	RBAC           rbac.Middleware

	AuthHandler      *auth.Handler
	CompaniesHandler *companies.Handler
	POSHandler       *pos.Handler
	RepairsHandler   *repairs.Handler
	SwapsHandler     *swaps.Handler
	CatalogHandler   *catalog.Handler
	BackupsHandler   *backups.Handler
	DashboardHandler *dashboardhttp.Handler
	AuditHandler     *audithttp.Handler
	ReportHandler    *report.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with SellApp defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(chimw.Logger)

	var authenticate func(http.Handler) http.Handler
	if params.Authenticator != nil {
		authenticate = params.Authenticator.Middleware
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Authenticate:   authenticate,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	r.Get("/", home)

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", func(r chi.Router) {
			if params.Authenticator != nil {
				r.Use(params.Authenticator.RequirePage)
			}
			params.DashboardHandler.MountPages(r)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/auth", params.AuthHandler.MountAPI)
		}
		r.Route("/admin", func(r chi.Router) {
			if params.DashboardHandler != nil {
				params.DashboardHandler.MountAdminRoutes(r)
			}
			if params.CompaniesHandler != nil {
				params.CompaniesHandler.MountRoutes(r)
			}
			if params.BackupsHandler != nil {
				params.BackupsHandler.MountAdminRoutes(r)
			}
			if params.AuditHandler != nil {
				params.AuditHandler.MountRoutes(r)
			}
			if params.ReportHandler != nil {
				r.Route("/reports", func(r chi.Router) {
					r.Use(params.RBAC.RequireAny(shared.PermPlatformView))
					params.ReportHandler.MountRoutes(r)
				})
			}
		})
		if params.DashboardHandler != nil {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		}
		if params.POSHandler != nil {
			r.Route("/pos", params.POSHandler.MountRoutes)
		}
		if params.SwapsHandler != nil {
			r.Route("/swaps", params.SwapsHandler.MountRoutes)
		}
		if params.RepairsHandler != nil {
			r.Route("/repairs", params.RepairsHandler.MountRoutes)
		}
		if params.CatalogHandler != nil {
			r.Route("/products", params.CatalogHandler.MountRoutes)
			r.Route("/categories", params.CatalogHandler.MountCategoryRoutes)
			r.Route("/brands", params.CatalogHandler.MountBrandRoutes)
			r.Route("/subcategories", params.CatalogHandler.MountSubcategoryRoutes)
		}
		if params.BackupsHandler != nil {
			params.BackupsHandler.MountRoutes(r)
		}
	})

	if static, err := staticHandler(params.Logger); err != nil {
		params.Logger.Error("mount static assets", slog.Any("error", err))
	} else {
		r.Handle("/static/*", static)
	}

	return r
}

// home sends signed in users to the dashboard that fits their role.
func home(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	switch {
	case !ok:
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
	case principal.IsSystemAdmin():
		http.Redirect(w, r, "/dashboard/admin", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/dashboard/manager", http.StatusSeeOther)
	}
}
