package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// DefaultLowStock is the quantity at or below which a product raises an
// inventory alert.
const DefaultLowStock = 5

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry shared.Activity) error
}

// CacheBumper invalidates cached dashboard data.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements catalog use cases.
type Service struct {
	repo     Repository
	composer *Composer
	activity ActivityRecorder
	cache    CacheBumper
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, activity ActivityRecorder, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		composer: NewComposer(repo),
		activity: activity,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
	}
}

// Categories lists categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.Categories(ctx)
}

// Brands lists brands of a category.
func (s *Service) Brands(ctx context.Context, categoryID int64) ([]Brand, error) {
	if _, err := s.repo.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	items, err := s.repo.Brands(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Brand{}
	}
	return items, nil
}

// Subcategories lists subcategories of a category.
func (s *Service) Subcategories(ctx context.Context, categoryID int64) ([]Subcategory, error) {
	if _, err := s.repo.Category(ctx, categoryID); err != nil {
		return nil, err
	}
	items, err := s.repo.Subcategories(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Subcategory{}
	}
	return items, nil
}

// BrandSpecs lists the spec fields a brand defines, in form order. An
// unknown brand yields an empty list.
func (s *Service) BrandSpecs(ctx context.Context, brandID int64) ([]SpecField, error) {
	if brandID <= 0 {
		return nil, fmt.Errorf("%w: brand id must be positive", httpx.ErrValidation)
	}
	fields, err := s.repo.BrandSpecs(ctx, brandID)
	if err != nil {
		return nil, err
	}
	out := make([]SpecField, len(fields))
	copy(out, fields)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

// FormSchema composes the product form. productID, when positive, hydrates
// the fields from the stored product and defaults the category and brand
// to the product's own.
func (s *Service) FormSchema(ctx context.Context, principal shared.Principal, categoryID int64, brandID *int64, productID int64) (FormSchema, error) {
	var stored map[string]string
	if productID > 0 {
		scope, err := principal.Scope(0)
		if err != nil {
			return FormSchema{}, err
		}
		product, err := s.repo.GetProduct(ctx, productID, scope)
		if err != nil {
			return FormSchema{}, err
		}
		if categoryID <= 0 {
			categoryID = product.CategoryID
		}
		if brandID == nil {
			brandID = product.BrandID
		}
		stored = product.Specs
	}
	return s.composer.Compose(ctx, categoryID, brandID, stored)
}

// List returns products visible to principal.
func (s *Service) List(ctx context.Context, principal shared.Principal, requestedCompany int64, filter ListFilter) ([]Product, shared.Pagination, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	filter.CompanyID = scope
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = shared.DefaultPerPage
	}
	items, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// LowStock returns up to limit products at or below threshold.
func (s *Service) LowStock(ctx context.Context, companyID *int64, threshold, limit int) ([]Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStock
	}
	items, _, err := s.repo.ListProducts(ctx, ListFilter{CompanyID: companyID, LowStock: threshold, Page: 1, Limit: limit})
	return items, err
}

// Get returns a product in scope.
func (s *Service) Get(ctx context.Context, principal shared.Principal, id int64) (Product, error) {
	scope, err := principal.Scope(0)
	if err != nil {
		return Product{}, err
	}
	return s.repo.GetProduct(ctx, id, scope)
}

// Create validates input against the composed form and stores a product.
func (s *Service) Create(ctx context.Context, principal shared.Principal, input ProductInput) (Product, error) {
	companyID, err := principal.CompanyScope(input.CompanyID)
	if err != nil {
		return Product{}, err
	}
	product, err := s.prepare(ctx, input)
	if err != nil {
		return Product{}, err
	}
	product.CompanyID = companyID
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, principal, "product.create", created)
	s.bump(ctx)
	return created, nil
}

// Update revalidates and overwrites a product.
func (s *Service) Update(ctx context.Context, principal shared.Principal, id int64, input ProductInput) (Product, error) {
	scope, err := principal.Scope(0)
	if err != nil {
		return Product{}, err
	}
	existing, err := s.repo.GetProduct(ctx, id, scope)
	if err != nil {
		return Product{}, err
	}
	product, err := s.prepare(ctx, input)
	if err != nil {
		return Product{}, err
	}
	product.ID = existing.ID
	product.CompanyID = existing.CompanyID
	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return Product{}, err
	}
	updated, err := s.repo.GetProduct(ctx, id, scope)
	if err != nil {
		return Product{}, err
	}
	s.record(ctx, principal, "product.update", updated)
	s.bump(ctx)
	return updated, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, principal shared.Principal, id int64) error {
	scope, err := principal.Scope(0)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, id, scope); err != nil {
		return err
	}
	s.record(ctx, principal, "product.delete", Product{ID: id})
	s.bump(ctx)
	return nil
}

func (s *Service) prepare(ctx context.Context, input ProductInput) (Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	if err := s.validate.Struct(input); err != nil {
		return Product{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if input.CostPrice.IsNegative() || !input.SellingPrice.IsPositive() {
		return Product{}, fmt.Errorf("%w: selling_price must be positive and cost_price not negative", httpx.ErrValidation)
	}
	schema, err := s.composer.Compose(ctx, input.CategoryID, input.BrandID, nil)
	if err != nil {
		return Product{}, err
	}
	specs, err := schema.Validate(input)
	if err != nil {
		return Product{}, err
	}
	brandID := input.BrandID
	if !schema.Brand.Visible || (brandID != nil && *brandID <= 0) {
		brandID = nil
	}
	subcategoryID := input.SubcategoryID
	if subcategoryID != nil && *subcategoryID <= 0 {
		subcategoryID = nil
	}
	return Product{
		Name:          input.Name,
		CategoryID:    input.CategoryID,
		BrandID:       brandID,
		SubcategoryID: subcategoryID,
		SKU:           input.SKU,
		CostPrice:     input.CostPrice,
		SellingPrice:  input.SellingPrice,
		Quantity:      input.Quantity,
		Specs:         specs,
	}, nil
}

func (s *Service) record(ctx context.Context, principal shared.Principal, action string, p Product) {
	if s.activity == nil {
		return
	}
	entry := shared.Activity{
		ActorID:  principal.UserID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(p.ID, 10),
	}
	if p.CompanyID > 0 {
		companyID := p.CompanyID
		entry.CompanyID = &companyID
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record product activity", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}
