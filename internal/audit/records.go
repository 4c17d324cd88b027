package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind names the source table of a record.
type Kind string

const (
	KindSale   Kind = "sale"
	KindRepair Kind = "repair"
	KindSwap   Kind = "swap"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindSale, KindRepair, KindSwap:
		return true
	}
	return false
}

// Record is one sale, repair or swap in the cross-company audit view.
type Record struct {
	Kind         Kind            `json:"kind"`
	ID           int64           `json:"id"`
	CompanyID    int64           `json:"company_id"`
	CompanyName  string          `json:"company_name"`
	Reference    string          `json:"reference"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Filter narrows the audit view. From and To are inclusive dates.
type Filter struct {
	CompanyID *int64
	Kind      Kind
	Search    string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}
