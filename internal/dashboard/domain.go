package dashboard

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Module is a per-company dashboard feature flag.
type Module string

const (
	ModuleCharts          Module = "charts"
	ModuleInventoryAlerts Module = "inventory_alerts"
	ModuleRecentSales     Module = "recent_sales"
)

// AllModules lists the toggleable modules.
var AllModules = []Module{ModuleCharts, ModuleInventoryAlerts, ModuleRecentSales}

// ModuleSet holds the stored flags of a company. Modules without a row are on.
type ModuleSet map[Module]bool

// Enabled reports whether m is switched on.
func (s ModuleSet) Enabled(m Module) bool {
	on, ok := s[m]
	return !ok || on
}

// Normalized returns a copy carrying every known module.
func (s ModuleSet) Normalized() ModuleSet {
	out := make(ModuleSet, len(AllModules))
	for _, m := range AllModules {
		out[m] = s.Enabled(m)
	}
	return out
}

// ToggleInput is the body of POST /api/dashboard/toggle-module.
type ToggleInput struct {
	CompanyID int64  `json:"company_id"`
	Module    string `json:"module" validate:"required,oneof=charts inventory_alerts recent_sales"`
	Enabled   *bool  `json:"enabled" validate:"required"`
}

// Range is a closed-open reporting window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Periods accepted by ParseRange.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// DefaultRangeDays is the window used when a request names none.
const DefaultRangeDays = 30

// ParseRange reads period or from/to. to is inclusive on the query string.
func ParseRange(q url.Values, now time.Time) (Range, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, 1)

	from, err := httpx.QueryDate(q, "from")
	if err != nil {
		return Range{}, err
	}
	to, err := httpx.QueryDate(q, "to")
	if err != nil {
		return Range{}, err
	}
	if from != nil || to != nil {
		r := Range{From: today.AddDate(0, 0, -DefaultRangeDays+1), To: end}
		if from != nil {
			r.From = *from
		}
		if to != nil {
			r.To = to.AddDate(0, 0, 1)
		}
		if !r.To.After(r.From) {
			return Range{}, fmt.Errorf("%w: to must not be before from", httpx.ErrValidation)
		}
		return r, nil
	}

	switch period := strings.ToLower(strings.TrimSpace(q.Get("period"))); period {
	case "":
		return Range{From: today.AddDate(0, 0, -DefaultRangeDays+1), To: end}, nil
	case PeriodToday:
		return Range{From: today, To: end}, nil
	case PeriodWeek:
		return Range{From: today.AddDate(0, 0, -6), To: end}, nil
	case PeriodMonth:
		return Range{From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), To: end}, nil
	case PeriodYear:
		return Range{From: time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), To: end}, nil
	default:
		return Range{}, fmt.Errorf("%w: unknown period %q", httpx.ErrValidation, period)
	}
}

// Key renders the range for cache keys and file names.
func (r Range) Key() string {
	return r.From.Format("20060102") + "-" + r.To.AddDate(0, 0, -1).Format("20060102")
}

// Stats are the headline counters shown on both dashboards.
type Stats struct {
	TotalCompanies  int64           `json:"total_companies"`
	ActiveCompanies int64           `json:"active_companies"`
	TotalUsers      int64           `json:"total_users"`
	TotalSales      int64           `json:"total_sales"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	TotalRepairs    int64           `json:"total_repairs"`
	PendingRepairs  int64           `json:"pending_repairs"`
	TotalSwaps      int64           `json:"total_swaps"`
	SwapsInStock    int64           `json:"swaps_in_stock"`
	TotalProducts   int64           `json:"total_products"`
	LowStock        int64           `json:"low_stock"`
}

// TrendPoint is one day of sales activity.
type TrendPoint struct {
	Date    time.Time       `json:"date"`
	Sales   int64           `json:"sales"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// Analytics is the admin trend payload.
type Analytics struct {
	Range   Range           `json:"range"`
	Trend   []TrendPoint    `json:"trend"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
	Sales   int64           `json:"sales"`
}

// CompanyPerformance ranks a company over a range.
type CompanyPerformance struct {
	CompanyID    int64           `json:"company_id"`
	CompanyName  string          `json:"company_name"`
	IsActive     bool            `json:"is_active"`
	Revenue      decimal.Decimal `json:"revenue"`
	Profit       decimal.Decimal `json:"profit"`
	SalesCount   int64           `json:"sales_count"`
	RepairsCount int64           `json:"repairs_count"`
	SwapsCount   int64           `json:"swaps_count"`
}

// CompanyMetrics summarise one company for its manager.
type CompanyMetrics struct {
	CompanyID     int64           `json:"company_id"`
	CompanyName   string          `json:"company_name"`
	Revenue       decimal.Decimal `json:"revenue"`
	Profit        decimal.Decimal `json:"profit"`
	SalesCount    int64           `json:"sales_count"`
	AverageSale   decimal.Decimal `json:"average_sale"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	OpenRepairs   int64           `json:"open_repairs"`
	SwapsInStock  int64           `json:"swaps_in_stock"`
	ProductsCount int64           `json:"products_count"`
	LowStockCount int64           `json:"low_stock_count"`
}

// MethodTotal sums sales by payment method.
type MethodTotal struct {
	Method string          `json:"method"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// RecentSale is a row of the recent sales table.
type RecentSale struct {
	ID            int64           `json:"id"`
	UniqueID      string          `json:"unique_id"`
	CustomerName  string          `json:"customer_name"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InventoryAlert is a product at or below the low stock threshold.
type InventoryAlert struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Threshold int    `json:"threshold"`
}

// ChartData is the dataset the manager charts are drawn from.
type ChartData struct {
	Range   Range         `json:"range"`
	Trend   []TrendPoint  `json:"trend"`
	Methods []MethodTotal `json:"payment_methods"`
}

// Empty reports whether there is nothing to draw.
func (c ChartData) Empty() bool {
	return len(c.Trend) == 0 && len(c.Methods) == 0
}

// Report is the dataset of a dashboard export.
type Report struct {
	CompanyName string         `json:"company_name"`
	Range       Range          `json:"range"`
	GeneratedAt time.Time      `json:"generated_at"`
	Metrics     CompanyMetrics `json:"metrics"`
	Trend       []TrendPoint   `json:"trend"`
	Methods     []MethodTotal  `json:"payment_methods"`
	RecentSales []RecentSale   `json:"recent_sales"`
}
