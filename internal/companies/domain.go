package companies

import "time"

// Company is a tenant of the platform.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ListFilter narrows company listings.
type ListFilter struct {
	Search     string
	ActiveOnly bool
	Page       int
	Limit      int
}
