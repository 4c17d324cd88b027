// Package audit exposes sales, repairs and swaps of every company as one
// record stream for platform auditing.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// MaxExportRows bounds a server side CSV export.
const MaxExportRows = 5000

// Service coordinates audit record queries.
type Service struct {
	repo Repository
}

// NewService builds an audit service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns a page of records visible to principal.
func (s *Service) List(ctx context.Context, principal shared.Principal, company int64, filter Filter) ([]Record, shared.Pagination, error) {
	filter, err := s.prepare(principal, company, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = shared.DefaultPerPage
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return records, shared.NewPagination(filter.Page, filter.Limit, total), nil
}

// Export returns every matching record up to MaxExportRows.
func (s *Service) Export(ctx context.Context, principal shared.Principal, company int64, filter Filter) ([]Record, error) {
	filter, err := s.prepare(principal, company, filter)
	if err != nil {
		return nil, err
	}
	filter.Page, filter.Limit = 1, MaxExportRows
	records, _, err := s.repo.List(ctx, filter)
	return records, err
}

func (s *Service) prepare(principal shared.Principal, company int64, filter Filter) (Filter, error) {
	if s.repo == nil {
		return Filter{}, fmt.Errorf("audit: repository not configured")
	}
	scope, err := principal.Scope(company)
	if err != nil {
		return Filter{}, err
	}
	filter.CompanyID = scope
	filter.Kind = Kind(strings.ToLower(strings.TrimSpace(string(filter.Kind))))
	if filter.Kind != "" && !filter.Kind.Valid() {
		return Filter{}, fmt.Errorf("%w: unknown kind %q", httpx.ErrValidation, filter.Kind)
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return Filter{}, fmt.Errorf("%w: to must not be before from", httpx.ErrValidation)
	}
	return filter, nil
}
