package pos

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// MaxBulkDelete caps the ids accepted by BulkDelete.
const MaxBulkDelete = 200

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry shared.Activity) error
}

// CacheBumper invalidates cached dashboard data.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements the sales history use cases.
type Service struct {
	repo     Repository
	activity ActivityRecorder
	cache    CacheBumper
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs a Service. activity and cache may be nil.
func NewService(repo Repository, activity ActivityRecorder, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, activity: activity, cache: cache, logger: logger, validate: validator.New()}
}

// List returns the sales visible to principal.
func (s *Service) List(ctx context.Context, principal shared.Principal, requestedCompany int64, filter ListFilter) ([]Sale, shared.Pagination, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	filter.CompanyID = scope
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown payment_status %q", httpx.ErrValidation, filter.PaymentStatus)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, shared.Pagination{}, fmt.Errorf("%w: to must not be before from", httpx.ErrValidation)
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = shared.DefaultPerPage
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return sales, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Get returns one sale with items.
func (s *Service) Get(ctx context.Context, principal shared.Principal, id int64) (Sale, error) {
	scope, err := principal.Scope(0)
	if err != nil {
		return Sale{}, err
	}
	return s.repo.Get(ctx, id, scope)
}

// Payments lists the payments of a sale in scope.
func (s *Service) Payments(ctx context.Context, principal shared.Principal, id int64) ([]Payment, error) {
	if _, err := s.Get(ctx, principal, id); err != nil {
		return nil, err
	}
	return s.repo.Payments(ctx, id)
}

// RecordPayment adds a payment and recomputes the payment status.
func (s *Service) RecordPayment(ctx context.Context, principal shared.Principal, id int64, input PaymentInput) (Sale, Payment, error) {
	input.Method = strings.ToLower(strings.TrimSpace(input.Method))
	if err := s.validate.Struct(input); err != nil {
		return Sale{}, Payment{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if !input.Amount.IsPositive() {
		return Sale{}, Payment{}, fmt.Errorf("%w: amount must be greater than zero", httpx.ErrValidation)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return Sale{}, Payment{}, err
	}

	var (
		sale    Sale
		payment Payment
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockSale(ctx, id, scope)
		if err != nil {
			return err
		}
		if !locked.CanRecordPayment() {
			return fmt.Errorf("%w: sale %s is already paid", httpx.ErrConflict, locked.UniqueID)
		}
		if input.Amount.GreaterThan(locked.Balance()) {
			return fmt.Errorf("%w: amount exceeds outstanding balance %s", httpx.ErrValidation, locked.Balance().StringFixed(2))
		}
		payment, err = tx.InsertPayment(ctx, Payment{
			SaleID:    locked.ID,
			Amount:    input.Amount,
			Method:    input.Method,
			Reference: strings.TrimSpace(input.Reference),
			CreatedBy: principal.UserID,
		})
		if err != nil {
			return err
		}
		locked.AmountPaid = locked.AmountPaid.Add(input.Amount)
		locked.PaymentStatus = ComputePaymentStatus(locked.AmountPaid, locked.FinalAmount)
		if err := tx.UpdatePaymentState(ctx, locked.ID, locked.AmountPaid, locked.PaymentStatus); err != nil {
			return err
		}
		sale = locked
		return nil
	})
	if err != nil {
		return Sale{}, Payment{}, err
	}

	s.record(ctx, principal, "sale.payment", sale.ID, sale.CompanyID, map[string]any{
		"amount": payment.Amount.StringFixed(2),
		"method": payment.Method,
		"status": string(sale.PaymentStatus),
	})
	s.bump(ctx)
	return sale, payment, nil
}

// Update edits sale metadata.
func (s *Service) Update(ctx context.Context, principal shared.Principal, id int64, input UpdateInput) (Sale, error) {
	if err := s.validate.Struct(input); err != nil {
		return Sale{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if input.CustomerName == nil && input.CustomerPhone == nil && input.Notes == nil {
		return Sale{}, fmt.Errorf("%w: nothing to update", httpx.ErrValidation)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return Sale{}, err
	}
	if err := s.repo.Update(ctx, id, scope, input); err != nil {
		return Sale{}, err
	}
	sale, err := s.repo.Get(ctx, id, scope)
	if err != nil {
		return Sale{}, err
	}
	s.record(ctx, principal, "sale.update", sale.ID, sale.CompanyID, nil)
	return sale, nil
}

// Delete removes a single sale.
func (s *Service) Delete(ctx context.Context, principal shared.Principal, id int64) error {
	deleted, err := s.BulkDelete(ctx, principal, []int64{id})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return fmt.Errorf("sale %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// BulkDelete removes the given sales within the principal scope and returns
// how many rows were deleted.
func (s *Service) BulkDelete(ctx context.Context, principal shared.Principal, ids []int64) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids required", httpx.ErrValidation)
	}
	if len(ids) > MaxBulkDelete {
		return 0, fmt.Errorf("%w: at most %d sales per request", httpx.ErrValidation, MaxBulkDelete)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return 0, err
	}
	var deleted int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		n, err := tx.DeleteSales(ctx, ids, scope)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		var company int64
		if scope != nil {
			company = *scope
		}
		s.record(ctx, principal, "sale.delete", ids[0], company, map[string]any{
			"ids":     ids,
			"deleted": deleted,
		})
		s.bump(ctx)
	}
	return deleted, nil
}

func (s *Service) record(ctx context.Context, principal shared.Principal, action string, saleID, companyID int64, meta map[string]any) {
	if s.activity == nil {
		return
	}
	entry := shared.Activity{
		ActorID:  principal.UserID,
		Action:   action,
		Entity:   "sale",
		EntityID: strconv.FormatInt(saleID, 10),
		Meta:     meta,
	}
	if companyID > 0 {
		entry.CompanyID = &companyID
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("record sale activity", slog.String("action", action), slog.Any("error", err))
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

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
