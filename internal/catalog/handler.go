package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

// Handler exposes product and category endpoints.
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

// MountRoutes registers routes under /api/products.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProductsView))
		r.Get("/", h.list)
		r.Get("/form-schema", h.formSchema)
		r.Get("/brands/{id}", h.brands)
		r.Get("/subcategories/{id}", h.subcategories)
		r.Get("/brand-specs/{id}", h.brandSpecs)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermProductsEdit))
		r.Post("/", h.create)
		r.Post("/{id}", h.update)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/delete", h.delete)
	})
}

// MountCategoryRoutes registers routes under /api/categories.
func (h *Handler) MountCategoryRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermProductsView))
	r.Get("/", h.categories)
	r.Get("/{id}/brands", h.brands)
	r.Get("/{id}/subcategories", h.subcategories)
	r.Get("/{id}/form-schema", h.categorySchema)
}

// MountBrandRoutes registers routes under /api/brands.
func (h *Handler) MountBrandRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermProductsView))
	r.Get("/by-category/{id}", h.brands)
}

// MountSubcategoryRoutes registers routes under /api/subcategories.
func (h *Handler) MountSubcategoryRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermProductsView))
	r.Get("/by-category/{id}", h.subcategories)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	filter := ListFilter{Search: q.Get("search")}
	companyID, err := httpx.QueryInt64(q, "company_id")
	if err == nil {
		filter.CategoryID, err = httpx.QueryInt64(q, "category_id")
	}
	if err == nil {
		filter.BrandID, err = httpx.QueryInt64(q, "brand_id")
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if q.Get("low_stock") == "1" || q.Get("low_stock") == "true" {
		filter.LowStock = DefaultLowStock
	}
	page := shared.ParsePageRequest(q)
	filter.Page, filter.Limit = page.Page, page.Limit
	items, pagination, err := h.service.List(r.Context(), principal, companyID, filter)
	if err != nil {
		h.fail(w, "list products", err)
		return
	}
	httpx.List(w, items, pagination.Total, pagination.Page, pagination.PerPage, pagination.TotalPages)
}

func (h *Handler) formSchema(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	categoryID, err := httpx.QueryInt64(q, "category_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	productID, err := httpx.QueryInt64(q, "product_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var brandID *int64
	if q.Has("brand_id") {
		id, err := httpx.QueryInt64(q, "brand_id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		brandID = &id
	}
	schema, err := h.service.FormSchema(r.Context(), principal, categoryID, brandID, productID)
	if err != nil {
		h.fail(w, "compose form schema", err)
		return
	}
	httpx.OK(w, schema)
}

func (h *Handler) categorySchema(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	categoryID, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	schema, err := h.service.FormSchema(r.Context(), principal, categoryID, nil, 0)
	if err != nil {
		h.fail(w, "compose form schema", err)
		return
	}
	httpx.OK(w, schema)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	product, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		h.fail(w, "get product", err)
		return
	}
	httpx.OK(w, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, err := shared.RequirePrincipal(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Create(r.Context(), principal, input)
	if err != nil {
		h.fail(w, "create product", err)
		return
	}
	httpx.Created(w, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	var input ProductInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	product, err := h.service.Update(r.Context(), principal, id, input)
	if err != nil {
		h.fail(w, "update product", err)
		return
	}
	httpx.Message(w, "Product updated", product)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.target(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.fail(w, "delete product", err)
		return
	}
	httpx.Message(w, "Product deleted", nil)
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Categories(r.Context())
	if err != nil {
		h.fail(w, "list categories", err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) brands(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.Brands(r.Context(), id)
	if err != nil {
		h.fail(w, "list brands", err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) subcategories(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.Subcategories(r.Context(), id)
	if err != nil {
		h.fail(w, "list subcategories", err)
		return
	}
	httpx.OK(w, items)
}

func (h *Handler) brandSpecs(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	fields, err := h.service.BrandSpecs(r.Context(), id)
	if err != nil {
		h.fail(w, "list brand specs", err)
		return
	}
	httpx.OK(w, fields)
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
