package repairs

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

// ActivityRecorder persists activity log entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry shared.Activity) error
}

// CacheBumper invalidates cached dashboard data.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service implements repair use cases.
type Service struct {
	repo     Repository
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
	return &Service{repo: repo, activity: activity, cache: cache, logger: logger, validate: validator.New()}
}

// List returns repairs visible to principal.
func (s *Service) List(ctx context.Context, principal shared.Principal, requestedCompany int64, filter ListFilter) ([]Repair, shared.Pagination, error) {
	scope, err := principal.Scope(requestedCompany)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, filter.Status)
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

// UpdateStatus applies a lifecycle transition.
func (s *Service) UpdateStatus(ctx context.Context, principal shared.Principal, id int64, input StatusInput) (Repair, error) {
	input.Status = Status(strings.ToLower(strings.TrimSpace(string(input.Status))))
	if err := s.validate.Struct(input); err != nil {
		return Repair{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	if !input.Status.Valid() {
		return Repair{}, fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, input.Status)
	}
	scope, err := principal.Scope(0)
	if err != nil {
		return Repair{}, err
	}
	repair, err := s.repo.Get(ctx, id, scope)
	if err != nil {
		return Repair{}, err
	}
	if repair.Status == input.Status {
		return repair, nil
	}
	if !repair.Status.CanTransition(input.Status) {
		return Repair{}, fmt.Errorf("%w: cannot move repair from %s to %s", httpx.ErrConflict, repair.Status, input.Status)
	}
	if err := s.repo.UpdateStatus(ctx, id, repair.Status, input.Status); err != nil {
		return Repair{}, err
	}
	previous := repair.Status
	repair.Status = input.Status

	if s.activity != nil {
		companyID := repair.CompanyID
		meta := map[string]any{"from": string(previous), "to": string(repair.Status)}
		if input.Note != "" {
			meta["note"] = input.Note
		}
		if err := s.activity.Record(ctx, shared.Activity{
			ActorID:   principal.UserID,
			CompanyID: &companyID,
			Action:    "repair.status",
			Entity:    "repair",
			EntityID:  strconv.FormatInt(repair.ID, 10),
			Meta:      meta,
		}); err != nil {
			s.logger.Warn("record repair activity", slog.Any("error", err))
		}
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("bump dashboard cache", slog.Any("error", err))
		}
	}
	return repair, nil
}

// Counts summarises repairs for a company scope.
func (s *Service) Counts(ctx context.Context, companyID *int64) (Counts, error) {
	return s.repo.Counts(ctx, companyID)
}
