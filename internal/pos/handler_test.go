package pos

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/rbac"
	"github.com/sellapp/sellapp/internal/shared"
)

func newTestRouter(repo *stubRepo) chi.Router {
	svc := NewService(repo, nil, nil, nil)
	h := NewHandler(nil, svc, rbac.Middleware{Service: rbac.NewService(nil)})
	r := chi.NewRouter()
	r.Route("/api/pos", h.MountRoutes)
	return r
}

func do(r http.Handler, method, path, body string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRecordPayment(t *testing.T) {
	repo := newStubRepo(sampleSale(7, 3, "50", "0"))
	r := newTestRouter(repo)
	cashier := shared.Principal{UserID: 2, Role: shared.RoleCashier, CompanyID: ptr(3)}

	rec := do(r, http.MethodPost, "/api/pos/sale/7/payment", `{"amount":"20","method":"mobile_money"}`, &cashier)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Sale struct {
				PaymentStatus string `json:"payment_status"`
				AmountPaid    string `json:"amount_paid"`
			} `json:"sale"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "PARTIAL", body.Data.Sale.PaymentStatus)
	assert.Equal(t, "20", body.Data.Sale.AmountPaid)

	rec = do(r, http.MethodPost, "/api/pos/sale/7/payment", `{"amount":"31","method":"cash"}`, &cashier)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDeleteRequiresPermission(t *testing.T) {
	repo := newStubRepo(sampleSale(7, 3, "50", "0"))
	r := newTestRouter(repo)
	cashier := shared.Principal{UserID: 2, Role: shared.RoleCashier, CompanyID: ptr(3)}
	mgr := manager(3)

	rec := do(r, http.MethodPost, "/api/pos/sale/7/delete", "", &cashier)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(r, http.MethodPost, "/api/pos/sales/bulk-delete", `{"ids":[7]}`, &mgr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deleted":1`)

	rec = do(r, http.MethodGet, "/api/pos/sale/7", "", &mgr)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListRejectsBadDate(t *testing.T) {
	r := newTestRouter(newStubRepo())
	mgr := manager(3)
	rec := do(r, http.MethodGet, "/api/pos/sales?from=yesterday", "", &mgr)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/pos/sales", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
