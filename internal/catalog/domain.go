// Package catalog manages products and the category driven spec forms
// used to edit them.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category kinds.
const (
	KindPhone     = "phone"
	KindAccessory = "accessory"
	KindGeneral   = "general"
)

// Field types rendered by the product form.
const (
	FieldText     = "text"
	FieldSelect   = "select"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
)

// phoneOnlyFields never apply to accessories.
var phoneOnlyFields = map[string]struct{}{
	"imei":           {},
	"imei2":          {},
	"storage":        {},
	"ram":            {},
	"battery_health": {},
	"network":        {},
	"sim_type":       {},
	"screen_size":    {},
	"camera":         {},
	"processor":      {},
}

// Category groups products and owns the default spec fields.
type Category struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Kind          string `json:"kind"`
	RequiresBrand bool   `json:"requires_brand"`
}

// IsAccessory reports whether phone specific fields are excluded.
func (c Category) IsAccessory() bool {
	return c.Kind == KindAccessory
}

// Brand belongs to a category and may override its spec fields.
type Brand struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// Subcategory narrows a category.
type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
}

// SpecField defines one dynamic product attribute.
type SpecField struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Label       string   `json:"label"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	SortOrder   int      `json:"sort_order"`
}

// Product is a sellable catalog item.
type Product struct {
	ID            int64             `json:"id"`
	CompanyID     int64             `json:"company_id"`
	Name          string            `json:"name"`
	CategoryID    int64             `json:"category_id"`
	CategoryName  string            `json:"category_name,omitempty"`
	BrandID       *int64            `json:"brand_id"`
	BrandName     string            `json:"brand_name,omitempty"`
	SubcategoryID *int64            `json:"subcategory_id"`
	SKU           string            `json:"sku"`
	CostPrice     decimal.Decimal   `json:"cost_price"`
	SellingPrice  decimal.Decimal   `json:"selling_price"`
	Quantity      int               `json:"quantity"`
	Specs         map[string]string `json:"specs"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ProductInput is the create/update payload.
type ProductInput struct {
	CompanyID     int64             `json:"company_id"`
	Name          string            `json:"name" validate:"required,max=200"`
	CategoryID    int64             `json:"category_id" validate:"required,gt=0"`
	BrandID       *int64            `json:"brand_id"`
	SubcategoryID *int64            `json:"subcategory_id"`
	SKU           string            `json:"sku" validate:"max=80"`
	CostPrice     decimal.Decimal   `json:"cost_price"`
	SellingPrice  decimal.Decimal   `json:"selling_price"`
	Quantity      int               `json:"quantity" validate:"gte=0"`
	Specs         map[string]string `json:"specs"`
}

// ListFilter narrows product listings.
type ListFilter struct {
	CompanyID  *int64
	CategoryID int64
	BrandID    int64
	Search     string
	LowStock   int
	Page       int
	Limit      int
}

// BrandField describes the brand selector state.
type BrandField struct {
	Visible  bool    `json:"visible"`
	Required bool    `json:"required"`
	Options  []Brand `json:"options"`
	Selected *int64  `json:"selected,omitempty"`
}

// FormField is a spec field with its current value.
type FormField struct {
	SpecField
	Value string `json:"value"`
}

// FormSchema is the composed product form for a category/brand pair.
type FormSchema struct {
	Category      Category      `json:"category"`
	Brand         BrandField    `json:"brand"`
	Subcategories []Subcategory `json:"subcategories"`
	Fields        []FormField   `json:"fields"`
}

// Field returns the named field.
func (s FormSchema) Field(name string) (FormField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FormField{}, false
}
