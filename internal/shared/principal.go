package shared

import (
	"fmt"

	"github.com/sellapp/sellapp/internal/platform/httpx"
)

// Roles known to the platform.
const (
	RoleSystemAdmin = "system_admin"
	RoleManager     = "manager"
	RoleCashier     = "cashier"
)

// Authentication channels recorded on the principal.
const (
	ViaBearer  = "bearer"
	ViaSession = "session"
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID    int64
	Email     string
	Name      string
	Role      string
	CompanyID *int64
	Via       string
}

// IsSystemAdmin reports whether the principal can see every company.
func (p Principal) IsSystemAdmin() bool {
	return p.Role == RoleSystemAdmin
}

// Scope resolves the company a request operates on. System admins may pick
// any company (0 means all companies, returned as nil). Everyone else is
// pinned to their own company.
func (p Principal) Scope(requested int64) (*int64, error) {
	if p.IsSystemAdmin() {
		if requested <= 0 {
			return nil, nil
		}
		id := requested
		return &id, nil
	}
	if p.CompanyID == nil {
		return nil, fmt.Errorf("%w: user has no company", httpx.ErrForbidden)
	}
	if requested > 0 && requested != *p.CompanyID {
		return nil, fmt.Errorf("%w: company %d", httpx.ErrForbidden, requested)
	}
	id := *p.CompanyID
	return &id, nil
}

// CompanyScope is Scope for callers that require a concrete company.
func (p Principal) CompanyScope(requested int64) (int64, error) {
	scope, err := p.Scope(requested)
	if err != nil {
		return 0, err
	}
	if scope == nil {
		return 0, fmt.Errorf("%w: company_id required", httpx.ErrValidation)
	}
	return *scope, nil
}
