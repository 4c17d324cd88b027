package pos

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how much of a sale has been settled.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentUnpaid  PaymentStatus = "UNPAID"
)

// Valid reports whether s is a known status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPartial, PaymentUnpaid:
		return true
	}
	return false
}

// Payment methods accepted at the till.
var PaymentMethods = []string{"cash", "card", "transfer", "mobile_money"}

// Sale is a POS transaction.
type Sale struct {
	ID              int64           `json:"id"`
	UniqueID        string          `json:"unique_id"`
	CompanyID       int64           `json:"company_id"`
	CompanyName     string          `json:"company_name,omitempty"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Discount        decimal.Decimal `json:"discount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	CashierName     string          `json:"cashier_name,omitempty"`
	CashierRole     string          `json:"cashier_role,omitempty"`
	HasSwappedItems bool            `json:"has_swapped_items"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []SaleItem      `json:"items,omitempty"`
}

// Balance is the amount still owed.
func (s Sale) Balance() decimal.Decimal {
	balance := s.FinalAmount.Sub(s.AmountPaid)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// CanRecordPayment reports whether another payment may be taken.
func (s Sale) CanRecordPayment() bool {
	return s.PaymentStatus != PaymentPaid
}

// SaleItem is one line of a sale.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Payment is an installment recorded against a sale.
type Payment struct {
	ID        int64           `json:"id"`
	SaleID    int64           `json:"sale_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference,omitempty"`
	CreatedBy int64           `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListFilter narrows the sales history.
type ListFilter struct {
	CompanyID     *int64
	From          *time.Time
	To            *time.Time
	PaymentStatus PaymentStatus
	PaymentMethod string
	Search        string
	Page          int
	Limit         int
}

// PaymentInput is a payment to record.
type PaymentInput struct {
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method" validate:"required,oneof=cash card transfer mobile_money"`
	Reference string          `json:"reference" validate:"max=120"`
}

// UpdateInput carries editable sale metadata. Nil fields are left untouched.
type UpdateInput struct {
	CustomerName  *string `json:"customer_name" validate:"omitempty,min=1,max=160"`
	CustomerPhone *string `json:"customer_phone" validate:"omitempty,max=40"`
	Notes         *string `json:"notes" validate:"omitempty,max=2000"`
}

// ComputePaymentStatus derives the status from the settled amount.
func ComputePaymentStatus(paid, final decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(final):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentUnpaid
	}
}
