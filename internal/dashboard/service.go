package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// Widget names used on the boards.
const (
	WidgetStats       = "stats"
	WidgetAnalytics   = "analytics"
	WidgetPerformance = "company_performance"
	WidgetMetrics     = "company_metrics"
	WidgetCharts      = "charts"
	WidgetRecentSales = "recent_sales"
	WidgetAlerts      = "inventory_alerts"
)

const (
	defaultRecentSales = 10
	defaultAlerts      = 10
	defaultPerformance = 10
	maxListLimit       = 50
)

// StockAlerts lists low stock products.
type StockAlerts interface {
	LowStock(ctx context.Context, companyID *int64, threshold, limit int) ([]catalog.Product, error)
}

// ActivityRecorder persists audit trail entries.
type ActivityRecorder interface {
	Record(ctx context.Context, entry shared.Activity) error
}

// StatsView is Stats with the widget status it was produced with.
type StatsView struct {
	Stats
	Status Status `json:"status"`
}

// AdminOverview is everything the platform dashboard shows.
type AdminOverview struct {
	Range       Range                `json:"range"`
	Stats       Stats                `json:"stats"`
	Analytics   Analytics            `json:"analytics"`
	Performance []CompanyPerformance `json:"company_performance"`
	Status      map[string]Status    `json:"status"`
}

// ManagerOverview is everything a company dashboard shows. Sections of
// disabled modules are omitted.
type ManagerOverview struct {
	CompanyID       int64             `json:"company_id"`
	Range           Range             `json:"range"`
	Modules         ModuleSet         `json:"modules"`
	Metrics         CompanyMetrics    `json:"metrics"`
	Charts          *ChartData        `json:"charts,omitempty"`
	RecentSales     []RecentSale      `json:"recent_sales,omitempty"`
	InventoryAlerts []InventoryAlert  `json:"inventory_alerts,omitempty"`
	Status          map[string]Status `json:"status"`
}

// Service assembles the admin and manager dashboards.
type Service struct {
	repo     Repository
	cache    *Cache
	board    *Board
	alerts   StockAlerts
	activity ActivityRecorder
	logger   *slog.Logger
	validate *validator.Validate
	flight   singleflight.Group
	now      func() time.Time
	lowStock int
}

// NewService wires the dashboard dependencies. cache and alerts may be nil.
func NewService(repo Repository, cache *Cache, board *Board, alerts StockAlerts, activity ActivityRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if board == nil {
		board = NewBoard(logger, nil, 0)
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		board:    board,
		alerts:   alerts,
		activity: activity,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
		lowStock: catalog.DefaultLowStock,
	}
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// AdminStats loads platform stats, falling back to platform metrics.
func (s *Service) AdminStats(ctx context.Context, principal shared.Principal, company int64, rng Range) (StatsView, error) {
	scope, err := principal.Scope(company)
	if err != nil {
		return StatsView{}, err
	}
	panels := s.board.Run(ctx, s.statsWidget(scope, rng))
	return StatsView{Stats: Value[Stats](panels, WidgetStats), Status: panels[WidgetStats].Status}, nil
}

// ManagerStats is AdminStats pinned to one company.
func (s *Service) ManagerStats(ctx context.Context, principal shared.Principal, company int64, rng Range) (StatsView, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return StatsView{}, err
	}
	panels := s.board.Run(ctx, s.statsWidget(&id, rng))
	return StatsView{Stats: Value[Stats](panels, WidgetStats), Status: panels[WidgetStats].Status}, nil
}

// PlatformMetrics returns the nested metrics document.
func (s *Service) PlatformMetrics(ctx context.Context, principal shared.Principal, company int64, rng Range) (StatsPayload, error) {
	scope, err := principal.Scope(company)
	if err != nil {
		return StatsPayload{}, err
	}
	return s.platformMetrics(scope, rng)(ctx)
}

// Analytics returns the revenue and profit trend of rng.
func (s *Service) Analytics(ctx context.Context, principal shared.Principal, company int64, rng Range) (Analytics, error) {
	scope, err := principal.Scope(company)
	if err != nil {
		return Analytics{}, err
	}
	return s.analytics(scope, rng)(ctx)
}

// CompanyPerformance ranks companies by revenue. Admin only.
func (s *Service) CompanyPerformance(ctx context.Context, principal shared.Principal, rng Range, limit int) ([]CompanyPerformance, error) {
	if !principal.IsSystemAdmin() {
		return nil, fmt.Errorf("%w: platform view required", httpx.ErrForbidden)
	}
	return s.performance(rng, clampLimit(limit, defaultPerformance))(ctx)
}

// CompanyMetrics summarises one company.
func (s *Service) CompanyMetrics(ctx context.Context, principal shared.Principal, company int64, rng Range) (CompanyMetrics, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return CompanyMetrics{}, err
	}
	return s.companyMetrics(id, rng)(ctx)
}

// ChartData returns the chart dataset, nil when the charts module is off.
func (s *Service) ChartData(ctx context.Context, principal shared.Principal, company int64, rng Range) (*ChartData, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return nil, err
	}
	modules, err := s.repo.Modules(ctx, id)
	if err != nil {
		return nil, err
	}
	if !modules.Enabled(ModuleCharts) {
		return nil, nil
	}
	data, err := s.chartData(id, rng)(ctx)
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// RecentSales returns the latest sales of a company.
func (s *Service) RecentSales(ctx context.Context, principal shared.Principal, company int64, limit int) ([]RecentSale, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return nil, err
	}
	return s.recentSales(id, clampLimit(limit, defaultRecentSales))(ctx)
}

// InventoryAlerts returns products at or below the low stock threshold.
func (s *Service) InventoryAlerts(ctx context.Context, principal shared.Principal, company int64, limit int) ([]InventoryAlert, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return nil, err
	}
	return s.inventoryAlerts(id, clampLimit(limit, defaultAlerts))(ctx)
}

// Modules returns every module flag of a company.
func (s *Service) Modules(ctx context.Context, principal shared.Principal, company int64) (ModuleSet, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return nil, err
	}
	set, err := s.repo.Modules(ctx, id)
	if err != nil {
		return nil, err
	}
	return set.Normalized(), nil
}

// ToggleModule switches a module of a company on or off.
func (s *Service) ToggleModule(ctx context.Context, principal shared.Principal, input ToggleInput) (ModuleSet, error) {
	input.Module = strings.ToLower(strings.TrimSpace(input.Module))
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	id, err := principal.CompanyScope(input.CompanyID)
	if err != nil {
		return nil, err
	}
	module := Module(input.Module)
	if err := s.repo.SetModule(ctx, id, module, *input.Enabled); err != nil {
		return nil, err
	}
	if s.activity != nil {
		err := s.activity.Record(ctx, shared.Activity{
			ActorID:   principal.UserID,
			CompanyID: &id,
			Action:    "dashboard.module",
			Entity:    "company",
			EntityID:  strconv.FormatInt(id, 10),
			Meta:      map[string]any{"module": input.Module, "enabled": *input.Enabled},
		})
		if err != nil {
			s.logger.Warn("record module toggle", slog.Any("error", err))
		}
	}
	set, err := s.repo.Modules(ctx, id)
	if err != nil {
		return nil, err
	}
	return set.Normalized(), nil
}

// AdminOverview loads the platform dashboard. Concurrent identical calls
// share one load.
func (s *Service) AdminOverview(ctx context.Context, principal shared.Principal, rng Range) (AdminOverview, error) {
	if !principal.IsSystemAdmin() {
		return AdminOverview{}, fmt.Errorf("%w: platform view required", httpx.ErrForbidden)
	}
	v, err, _ := s.flight.Do("admin:"+rng.Key(), func() (any, error) {
		panels := s.board.Run(ctx,
			s.statsWidget(nil, rng),
			NewWidget(WidgetAnalytics, s.analytics(nil, rng), nil, Analytics{Range: rng, Trend: []TrendPoint{}}),
			NewWidget(WidgetPerformance, s.performance(rng, defaultPerformance), nil, []CompanyPerformance{}),
		)
		return AdminOverview{
			Range:       rng,
			Stats:       Value[Stats](panels, WidgetStats),
			Analytics:   Value[Analytics](panels, WidgetAnalytics),
			Performance: Value[[]CompanyPerformance](panels, WidgetPerformance),
			Status:      statuses(panels),
		}, nil
	})
	if err != nil {
		return AdminOverview{}, err
	}
	return v.(AdminOverview), nil
}

// ManagerOverview loads a company dashboard, skipping disabled modules.
func (s *Service) ManagerOverview(ctx context.Context, principal shared.Principal, company int64, rng Range) (ManagerOverview, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return ManagerOverview{}, err
	}
	modules, err := s.repo.Modules(ctx, id)
	if err != nil {
		return ManagerOverview{}, err
	}
	modules = modules.Normalized()

	key := "manager:" + strconv.FormatInt(id, 10) + ":" + rng.Key() + ":" + moduleKey(modules)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		widgets := []Widget{NewWidget(WidgetMetrics, s.companyMetrics(id, rng), nil, CompanyMetrics{CompanyID: id})}
		if modules.Enabled(ModuleCharts) {
			widgets = append(widgets, NewWidget(WidgetCharts, s.chartData(id, rng), nil, ChartData{Range: rng}))
		}
		if modules.Enabled(ModuleRecentSales) {
			widgets = append(widgets, NewWidget(WidgetRecentSales, s.recentSales(id, defaultRecentSales), nil, []RecentSale{}))
		}
		if modules.Enabled(ModuleInventoryAlerts) {
			widgets = append(widgets, NewWidget(WidgetAlerts, s.inventoryAlerts(id, defaultAlerts), nil, []InventoryAlert{}))
		}
		panels := s.board.Run(ctx, widgets...)

		overview := ManagerOverview{
			CompanyID:       id,
			Range:           rng,
			Modules:         modules,
			Metrics:         Value[CompanyMetrics](panels, WidgetMetrics),
			RecentSales:     Value[[]RecentSale](panels, WidgetRecentSales),
			InventoryAlerts: Value[[]InventoryAlert](panels, WidgetAlerts),
			Status:          statuses(panels),
		}
		if _, ok := panels[WidgetCharts]; ok {
			charts := Value[ChartData](panels, WidgetCharts)
			overview.Charts = &charts
		}
		return overview, nil
	})
	if err != nil {
		return ManagerOverview{}, err
	}
	return v.(ManagerOverview), nil
}

// Report gathers the dataset of a dashboard export.
func (s *Service) Report(ctx context.Context, principal shared.Principal, company int64, rng Range) (Report, error) {
	id, err := principal.CompanyScope(company)
	if err != nil {
		return Report{}, err
	}
	name, err := s.repo.CompanyName(ctx, id)
	if err != nil {
		return Report{}, err
	}
	panels := s.board.Run(ctx,
		NewWidget(WidgetMetrics, s.companyMetrics(id, rng), nil, CompanyMetrics{CompanyID: id, CompanyName: name}),
		NewWidget(WidgetCharts, s.chartData(id, rng), nil, ChartData{Range: rng}),
		NewWidget(WidgetRecentSales, s.recentSales(id, maxListLimit), nil, []RecentSale{}),
	)
	charts := Value[ChartData](panels, WidgetCharts)
	return Report{
		CompanyName: name,
		Range:       rng,
		GeneratedAt: s.now().UTC(),
		Metrics:     Value[CompanyMetrics](panels, WidgetMetrics),
		Trend:       charts.Trend,
		Methods:     charts.Methods,
		RecentSales: Value[[]RecentSale](panels, WidgetRecentSales),
	}, nil
}

// Warm preloads the default platform dashboard into the cache.
func (s *Service) Warm(ctx context.Context) (AdminOverview, error) {
	rng, err := ParseRange(nil, s.now())
	if err != nil {
		return AdminOverview{}, err
	}
	return s.AdminOverview(ctx, shared.Principal{Role: shared.RoleSystemAdmin}, rng)
}

func (s *Service) statsWidget(scope *int64, rng Range) Widget {
	normalized := func(load Loader[StatsPayload]) Loader[Stats] {
		return func(ctx context.Context) (Stats, error) {
			p, err := load(ctx)
			if err != nil {
				return Stats{}, err
			}
			return NormalizeStats(p), nil
		}
	}
	primary := cached(s, []string{"stats", scopeToken(scope), rng.Key()}, func(ctx context.Context) (StatsPayload, error) {
		return s.repo.Stats(ctx, scope, rng, s.lowStock)
	})
	return NewWidget(WidgetStats, normalized(primary), normalized(s.platformMetrics(scope, rng)), Stats{})
}

func (s *Service) platformMetrics(scope *int64, rng Range) Loader[StatsPayload] {
	return cached(s, []string{"platform", scopeToken(scope), rng.Key()}, func(ctx context.Context) (StatsPayload, error) {
		return s.repo.PlatformMetrics(ctx, scope, rng, s.lowStock)
	})
}

func (s *Service) analytics(scope *int64, rng Range) Loader[Analytics] {
	return cached(s, []string{"analytics", scopeToken(scope), rng.Key()}, func(ctx context.Context) (Analytics, error) {
		trend, err := s.repo.Trend(ctx, scope, rng)
		if err != nil {
			return Analytics{}, err
		}
		out := Analytics{Range: rng, Trend: trend}
		for _, p := range trend {
			out.Revenue = out.Revenue.Add(p.Revenue)
			out.Profit = out.Profit.Add(p.Profit)
			out.Sales += p.Sales
		}
		return out, nil
	})
}

func (s *Service) performance(rng Range, limit int) Loader[[]CompanyPerformance] {
	return cached(s, []string{"performance", rng.Key(), strconv.Itoa(limit)}, func(ctx context.Context) ([]CompanyPerformance, error) {
		return s.repo.CompanyPerformance(ctx, rng, limit)
	})
}

func (s *Service) companyMetrics(id int64, rng Range) Loader[CompanyMetrics] {
	return cached(s, []string{"metrics", strconv.FormatInt(id, 10), rng.Key()}, func(ctx context.Context) (CompanyMetrics, error) {
		name, err := s.repo.CompanyName(ctx, id)
		if err != nil {
			return CompanyMetrics{}, err
		}
		payload, err := s.repo.Stats(ctx, &id, rng, s.lowStock)
		if err != nil {
			return CompanyMetrics{}, err
		}
		return metricsFromStats(id, name, NormalizeStats(payload)), nil
	})
}

func (s *Service) chartData(id int64, rng Range) Loader[ChartData] {
	return cached(s, []string{"charts", strconv.FormatInt(id, 10), rng.Key()}, func(ctx context.Context) (ChartData, error) {
		trend, err := s.repo.Trend(ctx, &id, rng)
		if err != nil {
			return ChartData{}, err
		}
		methods, err := s.repo.PaymentMethods(ctx, &id, rng)
		if err != nil {
			return ChartData{}, err
		}
		return ChartData{Range: rng, Trend: trend, Methods: methods}, nil
	})
}

func (s *Service) recentSales(id int64, limit int) Loader[[]RecentSale] {
	return cached(s, []string{"recent", strconv.FormatInt(id, 10), strconv.Itoa(limit)}, func(ctx context.Context) ([]RecentSale, error) {
		return s.repo.RecentSales(ctx, id, limit)
	})
}

func (s *Service) inventoryAlerts(id int64, limit int) Loader[[]InventoryAlert] {
	return cached(s, []string{"alerts", strconv.FormatInt(id, 10), strconv.Itoa(limit)}, func(ctx context.Context) ([]InventoryAlert, error) {
		if s.alerts == nil {
			return nil, ErrUnavailable
		}
		products, err := s.alerts.LowStock(ctx, &id, s.lowStock, limit)
		if err != nil {
			return nil, err
		}
		alerts := make([]InventoryAlert, 0, len(products))
		for _, p := range products {
			alerts = append(alerts, InventoryAlert{ProductID: p.ID, Name: p.Name, SKU: p.SKU, Quantity: p.Quantity, Threshold: s.lowStock})
		}
		return alerts, nil
	})
}

// cached wraps load with the versioned Redis cache. Cache failures are
// logged and the loader result is used directly.
func cached[T any](s *Service, parts []string, load Loader[T]) Loader[T] {
	return func(ctx context.Context) (T, error) {
		var (
			out    T
			fresh  T
			loaded bool
		)
		key, err := s.cache.Key(ctx, parts...)
		if err != nil {
			s.logger.Warn("dashboard cache key", slog.Any("error", err))
			return load(ctx)
		}
		err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			v, err := load(ctx)
			if err != nil {
				return nil, err
			}
			fresh, loaded = v, true
			return v, nil
		})
		switch {
		case err == nil:
			return out, nil
		case loaded:
			s.logger.Warn("dashboard cache write", slog.String("key", key), slog.Any("error", err))
			return fresh, nil
		default:
			return out, err
		}
	}
}

func metricsFromStats(id int64, name string, st Stats) CompanyMetrics {
	m := CompanyMetrics{
		CompanyID:     id,
		CompanyName:   name,
		Revenue:       st.TotalRevenue,
		Profit:        st.TotalProfit,
		SalesCount:    st.TotalSales,
		Outstanding:   st.Outstanding,
		OpenRepairs:   st.PendingRepairs,
		SwapsInStock:  st.SwapsInStock,
		ProductsCount: st.TotalProducts,
		LowStockCount: st.LowStock,
	}
	if st.TotalSales > 0 {
		m.AverageSale = st.TotalRevenue.Div(decimal.NewFromInt(st.TotalSales)).Round(2)
	}
	return m
}

func statuses(p Panels) map[string]Status {
	out := make(map[string]Status, len(p))
	for name, panel := range p {
		out[name] = panel.Status
	}
	return out
}

func scopeToken(scope *int64) string {
	if scope == nil {
		return "all"
	}
	return strconv.FormatInt(*scope, 10)
}

func moduleKey(m ModuleSet) string {
	var b strings.Builder
	for _, mod := range AllModules {
		if m.Enabled(mod) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit > maxListLimit:
		return maxListLimit
	}
	return limit
}
