// Package swaps records device trade-ins and pushes received devices into
// the catalog for resale.
package swaps

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the swap lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusResold    Status = "resold"
)

// ResaleStatus tracks the received device.
type ResaleStatus string

const (
	ResaleInStock ResaleStatus = "in_stock"
	ResaleSold    ResaleStatus = "sold"
)

// Swap is a trade-in of a customer device against a company device.
type Swap struct {
	ID                       int64            `json:"id"`
	CompanyID                int64            `json:"company_id"`
	CompanyName              string           `json:"company_name,omitempty"`
	TransactionCode          string           `json:"transaction_code"`
	CustomerName             string           `json:"customer_name"`
	CustomerPhone            string           `json:"customer_phone,omitempty"`
	CustomerProductBrand     string           `json:"customer_product_brand"`
	CustomerProductModel     string           `json:"customer_product_model"`
	CustomerProductValue     decimal.Decimal  `json:"customer_product_value"`
	CustomerProductCondition string           `json:"customer_product_condition"`
	CompanyProductName       string           `json:"company_product_name"`
	CompanyProductBrand      string           `json:"company_product_brand"`
	CompanyProductPrice      decimal.Decimal  `json:"company_product_price"`
	CashDifference           decimal.Decimal  `json:"cash_difference"`
	ResaleStatus             ResaleStatus     `json:"resale_status"`
	ProfitEstimate           decimal.Decimal  `json:"profit_estimate"`
	FinalProfit              *decimal.Decimal `json:"final_profit"`
	Status                   Status           `json:"status"`
	InventoryProductID       *int64           `json:"inventory_product_id"`
	CreatedAt                time.Time        `json:"created_at"`
}

// CanAddToProducts reports whether the received device can be synced into
// the catalog. A positive inventory_product_id means it already was.
func (s Swap) CanAddToProducts() bool {
	if s.ResaleStatus != ResaleInStock {
		return false
	}
	return s.InventoryProductID == nil || *s.InventoryProductID <= 0
}

// CanResell reports whether the received device is still unsold.
func (s Swap) CanResell() bool {
	return s.ResaleStatus == ResaleInStock && s.Status != StatusResold
}

// ListFilter narrows swap listings.
type ListFilter struct {
	CompanyID    *int64
	Status       Status
	ResaleStatus ResaleStatus
	Search       string
	Page         int
	Limit        int
}

// CreateInput records a new swap.
type CreateInput struct {
	CompanyID                int64           `json:"company_id"`
	CustomerName             string          `json:"customer_name" validate:"required,max=160"`
	CustomerPhone            string          `json:"customer_phone" validate:"max=40"`
	CustomerProductBrand     string          `json:"customer_product_brand" validate:"required,max=80"`
	CustomerProductModel     string          `json:"customer_product_model" validate:"required,max=120"`
	CustomerProductValue     decimal.Decimal `json:"customer_product_value"`
	CustomerProductCondition string          `json:"customer_product_condition" validate:"required,oneof=new excellent good fair poor"`
	CompanyProductName       string          `json:"company_product_name" validate:"required,max=160"`
	CompanyProductBrand      string          `json:"company_product_brand" validate:"max=80"`
	CompanyProductPrice      decimal.Decimal `json:"company_product_price"`
	ExpectedResalePrice      decimal.Decimal `json:"expected_resale_price"`
	Pending                  bool            `json:"pending"`
}

// ResellInput marks the received device sold.
type ResellInput struct {
	FinalPrice decimal.Decimal `json:"final_price"`
}

// SyncInput pushes a swap's received device into the catalog.
type SyncInput struct {
	SwapID       int64            `json:"swap_id" validate:"required,gt=0"`
	CategoryID   int64            `json:"category_id"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// NewProduct is the catalog row created by a resale sync.
type NewProduct struct {
	CompanyID    int64
	CategoryID   int64
	BrandName    string
	Name         string
	SKU          string
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
	Specs        map[string]string
}

// Counts summarises swaps for dashboards.
type Counts struct {
	Total   int             `json:"total"`
	InStock int             `json:"in_stock"`
	Resold  int             `json:"resold"`
	Profit  decimal.Decimal `json:"profit"`
}
