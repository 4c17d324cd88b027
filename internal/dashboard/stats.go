package dashboard

import "github.com/shopspring/decimal"

// StatsPayload is the wire shape of a stats document. The stats endpoint
// reports flat totals while platform metrics nests them per area; both
// decode into this struct and NormalizeStats reconciles them.
type StatsPayload struct {
	TotalCompanies  *int64           `json:"total_companies,omitempty"`
	ActiveCompanies *int64           `json:"active_companies,omitempty"`
	TotalUsers      *int64           `json:"total_users,omitempty"`
	TotalSales      *int64           `json:"total_sales,omitempty"`
	SalesCount      *int64           `json:"sales_count,omitempty"`
	TotalRevenue    *decimal.Decimal `json:"total_revenue,omitempty"`
	TotalProfit     *decimal.Decimal `json:"total_profit,omitempty"`
	Outstanding     *decimal.Decimal `json:"outstanding,omitempty"`
	TotalRepairs    *int64           `json:"total_repairs,omitempty"`
	PendingRepairs  *int64           `json:"pending_repairs,omitempty"`
	TotalSwaps      *int64           `json:"total_swaps,omitempty"`
	SwapsInStock    *int64           `json:"swaps_in_stock,omitempty"`
	TotalProducts   *int64           `json:"total_products,omitempty"`
	LowStock        *int64           `json:"low_stock,omitempty"`

	Companies *CompanyBlock `json:"companies,omitempty"`
	Users     *CountBlock   `json:"users,omitempty"`
	Sales     *SalesBlock   `json:"sales,omitempty"`
	Repairs   *RepairBlock  `json:"repairs,omitempty"`
	Swaps     *SwapBlock    `json:"swaps,omitempty"`
	Inventory *StockBlock   `json:"inventory,omitempty"`
}

// CompanyBlock is the companies section of platform metrics.
type CompanyBlock struct {
	Total  *int64 `json:"total,omitempty"`
	Active *int64 `json:"active,omitempty"`
}

// CountBlock carries a single total.
type CountBlock struct {
	Total *int64 `json:"total,omitempty"`
}

// SalesBlock is the sales section of platform metrics.
type SalesBlock struct {
	TotalTransactions *int64           `json:"total_transactions,omitempty"`
	Revenue           *decimal.Decimal `json:"revenue,omitempty"`
	Profit            *decimal.Decimal `json:"profit,omitempty"`
	Outstanding       *decimal.Decimal `json:"outstanding,omitempty"`
}

// RepairBlock is the repairs section of platform metrics.
type RepairBlock struct {
	Total   *int64 `json:"total,omitempty"`
	Pending *int64 `json:"pending,omitempty"`
}

// SwapBlock is the swaps section of platform metrics.
type SwapBlock struct {
	Total   *int64 `json:"total,omitempty"`
	InStock *int64 `json:"in_stock,omitempty"`
}

// StockBlock is the inventory section of platform metrics.
type StockBlock struct {
	Products *int64 `json:"products,omitempty"`
	LowStock *int64 `json:"low_stock,omitempty"`
}

// NormalizeStats folds any StatsPayload into Stats. Flat fields win over
// nested ones; anything missing is zero.
func NormalizeStats(p StatsPayload) Stats {
	var (
		companies CompanyBlock
		users     CountBlock
		sales     SalesBlock
		repairs   RepairBlock
		swaps     SwapBlock
		stock     StockBlock
	)
	if p.Companies != nil {
		companies = *p.Companies
	}
	if p.Users != nil {
		users = *p.Users
	}
	if p.Sales != nil {
		sales = *p.Sales
	}
	if p.Repairs != nil {
		repairs = *p.Repairs
	}
	if p.Swaps != nil {
		swaps = *p.Swaps
	}
	if p.Inventory != nil {
		stock = *p.Inventory
	}
	return Stats{
		TotalCompanies:  firstInt(p.TotalCompanies, companies.Total),
		ActiveCompanies: firstInt(p.ActiveCompanies, companies.Active),
		TotalUsers:      firstInt(p.TotalUsers, users.Total),
		TotalSales:      firstInt(p.TotalSales, p.SalesCount, sales.TotalTransactions),
		TotalRevenue:    firstDecimal(p.TotalRevenue, sales.Revenue),
		TotalProfit:     firstDecimal(p.TotalProfit, sales.Profit),
		Outstanding:     firstDecimal(p.Outstanding, sales.Outstanding),
		TotalRepairs:    firstInt(p.TotalRepairs, repairs.Total),
		PendingRepairs:  firstInt(p.PendingRepairs, repairs.Pending),
		TotalSwaps:      firstInt(p.TotalSwaps, swaps.Total),
		SwapsInStock:    firstInt(p.SwapsInStock, swaps.InStock),
		TotalProducts:   firstInt(p.TotalProducts, stock.Products),
		LowStock:        firstInt(p.LowStock, stock.LowStock),
	}
}

func firstInt(values ...*int64) int64 {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstDecimal(values ...*decimal.Decimal) decimal.Decimal {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return decimal.Zero
}
