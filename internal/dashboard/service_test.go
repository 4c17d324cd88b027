package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/catalog"
	"github.com/sellapp/sellapp/internal/platform/httpx"
)

var testRange = Range{
	From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	To:   time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
}

func newTestService(repo *stubRepo) *Service {
	alerts := stubAlerts{products: []catalog.Product{{ID: 4, Name: "USB-C cable", SKU: "CBL-1", Quantity: 2}}}
	svc := NewService(repo, nil, nil, alerts, &stubActivity{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestManagerOverviewSkipsDisabledModules(t *testing.T) {
	repo := newStubRepo()
	repo.stats = StatsPayload{TotalSales: i64(4), TotalRevenue: dec("200")}
	repo.trend = []TrendPoint{{Date: testRange.From, Sales: 4, Revenue: decimal.NewFromInt(200)}}
	repo.recent = []RecentSale{{ID: 1, UniqueID: "S-1"}}
	svc := newTestService(repo)
	ctx := context.Background()

	overview, err := svc.ManagerOverview(ctx, manager(3), 0, testRange)
	require.NoError(t, err)
	require.NotNil(t, overview.Charts)
	assert.Len(t, overview.Charts.Trend, 1)
	assert.Len(t, overview.RecentSales, 1)
	assert.Len(t, overview.InventoryAlerts, 1)
	assert.Equal(t, "Acme Phones", overview.Metrics.CompanyName)
	assert.Equal(t, "50", overview.Metrics.AverageSale.String())

	repo.modules[3] = ModuleSet{ModuleCharts: false, ModuleInventoryAlerts: false}
	trendCalls := repo.trendCalls

	overview, err = svc.ManagerOverview(ctx, manager(3), 0, testRange)
	require.NoError(t, err)
	assert.Nil(t, overview.Charts)
	assert.Nil(t, overview.InventoryAlerts)
	assert.Len(t, overview.RecentSales, 1)
	assert.NotContains(t, overview.Status, WidgetCharts)
	assert.Equal(t, trendCalls, repo.trendCalls, "disabled charts must not load")
	assert.False(t, overview.Modules[ModuleCharts])
}

func TestManagerOverviewRejectsForeignCompany(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.ManagerOverview(context.Background(), manager(3), 8, testRange)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestAdminStatsFallsBackToPlatformMetrics(t *testing.T) {
	repo := newStubRepo()
	repo.statsErr = errBoom
	repo.platform = StatsPayload{Companies: &CompanyBlock{Total: i64(6), Active: i64(5)}}
	svc := newTestService(repo)

	view, err := svc.AdminStats(context.Background(), admin(), 0, testRange)
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, view.Status)
	assert.Equal(t, int64(6), view.TotalCompanies)
}

func TestAdminOverviewDegradesFailingWidget(t *testing.T) {
	repo := newStubRepo()
	repo.trendErr = errBoom
	repo.perf = []CompanyPerformance{{CompanyID: 3, CompanyName: "Acme Phones"}}
	svc := newTestService(repo)

	overview, err := svc.AdminOverview(context.Background(), admin(), testRange)
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, overview.Status[WidgetAnalytics])
	assert.Equal(t, StatusOK, overview.Status[WidgetPerformance])
	assert.Empty(t, overview.Analytics.Trend)
	assert.Len(t, overview.Performance, 1)

	_, err = svc.AdminOverview(context.Background(), manager(3), testRange)
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestToggleModule(t *testing.T) {
	repo := newStubRepo()
	activity := &stubActivity{}
	svc := NewService(repo, nil, nil, nil, activity, nil)
	off := false

	set, err := svc.ToggleModule(context.Background(), manager(3), ToggleInput{Module: " Charts ", Enabled: &off})
	require.NoError(t, err)
	assert.False(t, set[ModuleCharts])
	assert.True(t, set[ModuleRecentSales])
	require.Len(t, activity.entries, 1)
	assert.Equal(t, "dashboard.module", activity.entries[0].Action)

	data, err := svc.ChartData(context.Background(), manager(3), 0, testRange)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = svc.ToggleModule(context.Background(), manager(3), ToggleInput{Module: "weather", Enabled: &off})
	assert.True(t, errors.Is(err, httpx.ErrValidation))
	_, err = svc.ToggleModule(context.Background(), manager(3), ToggleInput{Module: "charts"})
	assert.True(t, errors.Is(err, httpx.ErrValidation))
}

func TestInventoryAlertsWithoutSource(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil, nil, nil, nil)
	overview, err := svc.ManagerOverview(context.Background(), manager(3), 0, testRange)
	require.NoError(t, err)
	assert.Equal(t, StatusDegraded, overview.Status[WidgetAlerts])
	assert.Empty(t, overview.InventoryAlerts)
}

func TestReportCollectsDataset(t *testing.T) {
	repo := newStubRepo()
	repo.methods = []MethodTotal{{Method: "cash", Count: 2, Amount: decimal.NewFromInt(80)}}
	repo.recent = []RecentSale{{ID: 1}, {ID: 2}}
	svc := newTestService(repo)

	report, err := svc.Report(context.Background(), manager(3), 0, testRange)
	require.NoError(t, err)
	assert.Equal(t, "Acme Phones", report.CompanyName)
	assert.Len(t, report.Methods, 1)
	assert.Len(t, report.RecentSales, 2)
	assert.Equal(t, 2026, report.GeneratedAt.Year())

	_, err = svc.Report(context.Background(), manager(44), 0, testRange)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0, 10))
	assert.Equal(t, 7, clampLimit(7, 10))
	assert.Equal(t, maxListLimit, clampLimit(500, 10))
}
