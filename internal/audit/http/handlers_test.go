package audithttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/audit"
	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

type stubRepo struct {
	records []audit.Record
}

func (s stubRepo) List(_ context.Context, filter audit.Filter) ([]audit.Record, int, error) {
	return s.records, len(s.records), nil
}

func newTestRouter() chi.Router {
	repo := stubRepo{records: []audit.Record{
		{Kind: audit.KindSale, ID: 1, CompanyName: "Acme", Reference: "S-1", CustomerName: "Doe, Jane", Amount: decimal.NewFromInt(10), Status: "PAID"},
		{Kind: audit.KindSwap, ID: 2, CompanyName: "Acme", Reference: "SW-2", CustomerName: "Ama", Status: "pending"},
	}}
	h := NewHandler(nil, audit.NewService(repo), rbac.Middleware{Service: rbac.NewService(nil)})
	h.now = func() time.Time { return time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api/admin", h.MountRoutes)
	return r
}

func get(r http.Handler, path string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var admin = shared.Principal{UserID: 1, Role: shared.RoleSystemAdmin}

func TestAuditList(t *testing.T) {
	rec := get(newTestRouter(), "/api/admin/company-audit?limit=1", &admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":2`)
	assert.Contains(t, rec.Body.String(), `"total_pages":2`)
	assert.Contains(t, rec.Body.String(), `"kind":"sale"`)
}

func TestAuditCSVExport(t *testing.T) {
	rec := get(newTestRouter(), "/api/admin/company-audit?format=csv", &admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="company-audit-20260309.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], `"Doe, Jane"`)
}

func TestAuditRequiresPlatformRole(t *testing.T) {
	mgr := shared.Principal{UserID: 2, Role: shared.RoleManager, CompanyID: new(int64)}
	assert.Equal(t, http.StatusForbidden, get(newTestRouter(), "/api/admin/company-audit", &mgr).Code)
	assert.Equal(t, http.StatusBadRequest, get(newTestRouter(), "/api/admin/company-audit?format=xml", &admin).Code)
}

func TestAuditExportRateLimited(t *testing.T) {
	r := newTestRouter()
	for i := 0; i < exportRateLimit; i++ {
		require.Equal(t, http.StatusOK, get(r, "/api/admin/company-audit?format=csv", &admin).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/api/admin/company-audit?format=csv", &admin).Code)
	// plain listing is not limited
	assert.Equal(t, http.StatusOK, get(r, "/api/admin/company-audit", &admin).Code)
}
