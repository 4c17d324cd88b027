package auth

import (
	"time"

	"github.com/sellapp/sellapp/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CompanyID    *int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the user into a request principal.
func (u User) Principal(via string) shared.Principal {
	return shared.Principal{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		Via:       via,
	}
}

// UserView is the JSON shape of a user.
type UserView struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID *int64 `json:"company_id"`
}

func viewOf(p shared.Principal) UserView {
	return UserView{ID: p.UserID, Email: p.Email, Name: p.Name, Role: p.Role, CompanyID: p.CompanyID}
}
