package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

var errBoom = errors.New("boom")

type stubRepo struct {
	mu sync.Mutex

	stats      StatsPayload
	statsErr   error
	platform   StatsPayload
	trend      []TrendPoint
	trendErr   error
	methods    []MethodTotal
	perf       []CompanyPerformance
	names      map[int64]string
	recent     []RecentSale
	modules    map[int64]ModuleSet
	statsCalls int
	trendCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		names:   map[int64]string{3: "Acme Phones"},
		modules: map[int64]ModuleSet{},
	}
}

func (s *stubRepo) Stats(_ context.Context, _ *int64, _ Range, _ int) (StatsPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statsCalls++
	return s.stats, s.statsErr
}

func (s *stubRepo) PlatformMetrics(context.Context, *int64, Range, int) (StatsPayload, error) {
	return s.platform, nil
}

func (s *stubRepo) Trend(context.Context, *int64, Range) ([]TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trendCalls++
	return s.trend, s.trendErr
}

func (s *stubRepo) PaymentMethods(context.Context, *int64, Range) ([]MethodTotal, error) {
	return s.methods, nil
}

func (s *stubRepo) CompanyPerformance(context.Context, Range, int) ([]CompanyPerformance, error) {
	return s.perf, nil
}

func (s *stubRepo) CompanyName(_ context.Context, id int64) (string, error) {
	name, ok := s.names[id]
	if !ok {
		return "", httpx.ErrNotFound
	}
	return name, nil
}

func (s *stubRepo) RecentSales(context.Context, int64, int) ([]RecentSale, error) {
	return s.recent, nil
}

func (s *stubRepo) Modules(_ context.Context, id int64) (ModuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ModuleSet{}
	for k, v := range s.modules[id] {
		out[k] = v
	}
	return out, nil
}

func (s *stubRepo) SetModule(_ context.Context, id int64, m Module, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modules[id] == nil {
		s.modules[id] = ModuleSet{}
	}
	s.modules[id][m] = on
	return nil
}

type stubAlerts struct{ products []catalog.Product }

func (s stubAlerts) LowStock(context.Context, *int64, int, int) ([]catalog.Product, error) {
	return s.products, nil
}

type stubActivity struct{ entries []shared.Activity }

func (s *stubActivity) Record(_ context.Context, e shared.Activity) error {
	s.entries = append(s.entries, e)
	return nil
}

func i64(v int64) *int64 { return &v }

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func manager(company int64) shared.Principal {
	return shared.Principal{UserID: 9, Role: shared.RoleManager, CompanyID: i64(company)}
}

func admin() shared.Principal {
	return shared.Principal{UserID: 1, Role: shared.RoleSystemAdmin}
}
