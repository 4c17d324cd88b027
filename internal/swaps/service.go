package swaps

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry shared.Activity) error
}

// CacheBumper invalidates cached dashboard data.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements swap use cases.
type Service struct {
	repo     Repository
	activity ActivityRecorder
	cache    CacheBumper
	logger   *slog.Logger
	validate *validator.Validate
	codes    func() string
}

// NewService constructs a Service.
func NewService(repo Repository, activity ActivityRecorder, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		activity: activity,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
		codes:    transactionCode,
	}
}

func transactionCode() string {
	return "SWP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// List returns swaps visible to principal.
func (s *Service) List(ctx context.Context, principal shared.Principal, requestedCompany int64, filter ListFilter) ([]Swap, shared.Pagination, error) {
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
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns a swap in scope.
func (s *Service) Get(ctx context.Context, principal shared.Principal, id int64) (Swap, error) {
	scope, err := principal.Scope(0)
	if err != nil {
		return Swap{}, err
	}
	return s.repo.Get(ctx, id, scope)
}

// Create records a swap. The profit estimate is the expected resale price
// of the received device minus the value credited for it.
func (s *Service) Create(ctx context.Context, principal shared.Principal, input CreateInput) (Swap, error) {
	if err := s.validate.Struct(input); err != nil {
		return Swap{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if input.CustomerProductValue.IsNegative() || !input.CompanyProductPrice.IsPositive() {
		return Swap{}, fmt.Errorf("%w: product values must be positive", httpx.ErrValidation)
	}
	companyID, err := principal.CompanyScope(input.CompanyID)
	if err != nil {
		return Swap{}, err
	}
	resale := input.ExpectedResalePrice
	if resale.IsZero() {
		resale = input.CustomerProductValue
	}
	status := StatusCompleted
	if input.Pending {
		status = StatusPending
	}
	swap, err := s.repo.Create(ctx, Swap{
		CompanyID:                companyID,
		TransactionCode:          s.codes(),
		CustomerName:             strings.TrimSpace(input.CustomerName),
		CustomerPhone:            strings.TrimSpace(input.CustomerPhone),
		CustomerProductBrand:     strings.TrimSpace(input.CustomerProductBrand),
		CustomerProductModel:     strings.TrimSpace(input.CustomerProductModel),
		CustomerProductValue:     input.CustomerProductValue,
		CustomerProductCondition: input.CustomerProductCondition,
		CompanyProductName:       strings.TrimSpace(input.CompanyProductName),
		CompanyProductBrand:      strings.TrimSpace(input.CompanyProductBrand),
		CompanyProductPrice:      input.CompanyProductPrice,
		CashDifference:           input.CompanyProductPrice.Sub(input.CustomerProductValue),
		ResaleStatus:             ResaleInStock,
		ProfitEstimate:           resale.Sub(input.CustomerProductValue),
		Status:                   status,
	})
	if err != nil {
		return Swap{}, err
	}
	s.record(ctx, principal, "swap.create", swap, nil)
	s.bump(ctx)
	return swap, nil
}

// Delete removes a swap.
func (s *Service) Delete(ctx context.Context, principal shared.Principal, id int64) error {
	scope, err := principal.Scope(0)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, scope); err != nil {
		return err
	}
	s.record(ctx, principal, "swap.delete", Swap{ID: id}, nil)
	s.bump(ctx)
	return nil
}

// Resell marks the received device sold at finalPrice.
func (s *Service) Resell(ctx context.Context, principal shared.Principal, id int64, input ResellInput) (Swap, error) {
	if !input.FinalPrice.IsPositive() {
		return Swap{}, fmt.Errorf("%w: final_price must be greater than zero", httpx.ErrValidation)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return Swap{}, err
	}
	var swap Swap
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockSwap(ctx, id, scope)
		if err != nil {
			return err
		}
		if !locked.CanResell() {
			return fmt.Errorf("%w: swap %s already resold", httpx.ErrConflict, locked.TransactionCode)
		}
		profit := input.FinalPrice.Sub(locked.CustomerProductValue)
		if err := tx.MarkResold(ctx, locked.ID, profit); err != nil {
			return err
		}
		locked.ResaleStatus = ResaleSold
		locked.Status = StatusResold
		locked.FinalProfit = &profit
		swap = locked
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	s.record(ctx, principal, "swap.resell", swap, map[string]any{"final_profit": swap.FinalProfit.StringFixed(2)})
	s.bump(ctx)
	return swap, nil
}

// SyncToInventory creates a catalog product from the received device and
// links it to the swap, all in one transaction.
func (s *Service) SyncToInventory(ctx context.Context, principal shared.Principal, input SyncInput) (Swap, error) {
	if err := s.validate.Struct(input); err != nil {
		return Swap{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if input.SellingPrice != nil && !input.SellingPrice.IsPositive() {
		return Swap{}, fmt.Errorf("%w: selling_price must be greater than zero", httpx.ErrValidation)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return Swap{}, err
	}
	var swap Swap
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockSwap(ctx, input.SwapID, scope)
		if err != nil {
			return err
		}
		if !locked.CanAddToProducts() {
			return fmt.Errorf("%w: swap %s is not in stock or already added to products", httpx.ErrConflict, locked.TransactionCode)
		}
		categoryID := input.CategoryID
		if categoryID <= 0 {
			if categoryID, err = tx.DefaultCategory(ctx); err != nil {
				return err
			}
		}
		price := locked.CustomerProductValue.Add(decimal.Max(locked.ProfitEstimate, decimal.Zero))
		if input.SellingPrice != nil {
			price = *input.SellingPrice
		}
		productID, err := tx.InsertProduct(ctx, NewProduct{
			CompanyID:    locked.CompanyID,
			CategoryID:   categoryID,
			BrandName:    locked.CustomerProductBrand,
			Name:         strings.TrimSpace(locked.CustomerProductBrand + " " + locked.CustomerProductModel),
			SKU:          locked.TransactionCode,
			CostPrice:    locked.CustomerProductValue,
			SellingPrice: price,
			Specs: map[string]string{
				"condition": locked.CustomerProductCondition,
				"source":    "swap",
			},
		})
		if err != nil {
			return err
		}
		if err := tx.LinkProduct(ctx, locked.ID, productID); err != nil {
			return err
		}
		locked.InventoryProductID = &productID
		swap = locked
		return nil
	})
	if err != nil {
		return Swap{}, err
	}
	s.record(ctx, principal, "swap.sync_inventory", swap, map[string]any{"product_id": *swap.InventoryProductID})
	s.bump(ctx)
	return swap, nil
}

// Counts summarises swaps for a company scope.
func (s *Service) Counts(ctx context.Context, companyID *int64) (Counts, error) {
	return s.repo.Counts(ctx, companyID)
}

func (s *Service) record(ctx context.Context, principal shared.Principal, action string, swap Swap, meta map[string]any) {
	if s.activity == nil {
		return
	}
	entry := shared.Activity{
		ActorID:  principal.UserID,
		Action:   action,
		Entity:   "swap",
		EntityID: strconv.FormatInt(swap.ID, 10),
		Meta:     meta,
	}
	if swap.CompanyID > 0 {
		companyID := swap.CompanyID
		entry.CompanyID = &companyID
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record swap activity", slog.String("action", action), slog.Any("error", err))
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
