package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sellapp/sellapp/internal/shared"
)

type stubGrants struct {
	perms []string
	err   error
}

func (s stubGrants) UserGrants(context.Context, int64) ([]string, error) {
	return s.perms, s.err
}

func serve(mw func(http.Handler) http.Handler, principal *shared.Principal) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rec, req)
	return rec.Code
}

func TestRequireAnyByRole(t *testing.T) {
	m := Middleware{Service: NewService(nil)}
	cashier := &shared.Principal{UserID: 5, Role: shared.RoleCashier}
	manager := &shared.Principal{UserID: 6, Role: shared.RoleManager}

	assert.Equal(t, http.StatusUnauthorized, serve(m.RequireAny(shared.PermSalesDelete), nil))
	assert.Equal(t, http.StatusForbidden, serve(m.RequireAny(shared.PermSalesDelete), cashier))
	assert.Equal(t, http.StatusNoContent, serve(m.RequireAny(shared.PermSalesDelete), manager))
	assert.Equal(t, http.StatusNoContent, serve(m.RequireAny(), cashier))
}

func TestRequireAllWithGrants(t *testing.T) {
	m := Middleware{Service: NewService(stubGrants{perms: []string{" Sales.Delete "}})}
	cashier := &shared.Principal{UserID: 5, Role: shared.RoleCashier}

	assert.Equal(t, http.StatusNoContent, serve(m.RequireAll(shared.PermSalesView, shared.PermSalesDelete), cashier))
	assert.Equal(t, http.StatusForbidden, serve(m.RequireAll(shared.PermSalesView, shared.PermAuditView), cashier))
}

func TestGrantSourceFailure(t *testing.T) {
	m := Middleware{Service: NewService(stubGrants{err: errors.New("db down")})}
	cashier := &shared.Principal{UserID: 5, Role: shared.RoleCashier}
	assert.Equal(t, http.StatusInternalServerError, serve(m.RequireAny(shared.PermSalesView), cashier))
}

func TestRequireRole(t *testing.T) {
	m := Middleware{Service: NewService(nil)}
	admin := &shared.Principal{UserID: 1, Role: shared.RoleSystemAdmin}
	manager := &shared.Principal{UserID: 2, Role: shared.RoleManager}
	assert.Equal(t, http.StatusNoContent, serve(m.RequireRole(shared.RoleSystemAdmin), admin))
	assert.Equal(t, http.StatusForbidden, serve(m.RequireRole(shared.RoleSystemAdmin), manager))
}
