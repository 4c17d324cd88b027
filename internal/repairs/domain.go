// Package repairs tracks device repair jobs and their lifecycle.
package repairs

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a repair.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusCancelled, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusFailed},
	StatusCompleted:  {StatusDelivered, StatusCancelled, StatusFailed},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelivered, StatusCancelled, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether a repair may move from s to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Repair is a device brought in for repair.
type Repair struct {
	ID               int64           `json:"id"`
	CompanyID        int64           `json:"company_id"`
	CompanyName      string          `json:"company_name,omitempty"`
	CustomerName     string          `json:"customer_name"`
	CustomerContact  string          `json:"customer_contact"`
	ProductName      string          `json:"product_name"`
	IssueDescription string          `json:"issue_description"`
	Status           Status          `json:"status"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ListFilter narrows repair listings.
type ListFilter struct {
	CompanyID *int64
	Status    Status
	Search    string
	Page      int
	Limit     int
}

// StatusInput moves a repair to a new status.
type StatusInput struct {
	Status Status `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// Counts summarises repairs by status.
type Counts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Delivered  int `json:"delivered"`
}
