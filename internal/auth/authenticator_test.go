package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellapp/sellapp/internal/auth"
	"github.com/sellapp/sellapp/internal/shared"
)

func newAPIRouter(handler *auth.Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountAPI)
	return r
}

func principalEcho(got *shared.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := shared.PrincipalFromContext(r.Context())
		if ok {
			*got = p
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticatorPrefersBearer(t *testing.T) {
	company := int64(2)
	user := auth.User{ID: 11, Email: "c@test.local", Role: shared.RoleCashier, CompanyID: &company, IsActive: true}
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	service := auth.NewService(&stubRepo{user: &user})
	authn := auth.NewAuthenticator(tokens, service, nil)

	sess := &shared.Session{}
	sess.SetUser(99)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	var got shared.Principal
	authn.Middleware(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(11), got.UserID)
	assert.Equal(t, shared.ViaBearer, got.Via)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, int64(2), *got.CompanyID)
}

func TestAuthenticatorFallsBackToSession(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	service := auth.NewService(&stubRepo{user: &auth.User{ID: 99, Email: "m@test.local", Role: shared.RoleManager, IsActive: true}})
	authn := auth.NewAuthenticator(tokens, service, nil)

	sess := &shared.Session{}
	sess.SetUser(99)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	var got shared.Principal
	authn.Middleware(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, int64(99), got.UserID)
	assert.Equal(t, shared.ViaSession, got.Via)
}

func TestAuthenticatorRejectsBearerOfDisabledUser(t *testing.T) {
	company := int64(2)
	user := auth.User{ID: 11, Email: "c@test.local", Role: shared.RoleCashier, CompanyID: &company, IsActive: true}
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	repo := &stubRepo{user: &user}
	authn := auth.NewAuthenticator(tokens, auth.NewService(repo), nil)
	handler := authn.Middleware(authn.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))
	request := func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, request())
	require.Equal(t, http.StatusNoContent, res.Code)

	repo.user = &auth.User{ID: 11, Email: "c@test.local", Role: shared.RoleCashier, CompanyID: &company, IsActive: false}
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, request())
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAuthenticatorBearerUsesCurrentRole(t *testing.T) {
	company := int64(2)
	user := auth.User{ID: 11, Email: "c@test.local", Role: shared.RoleCashier, CompanyID: &company, IsActive: true}
	tokens := auth.NewTokenIssuer("secret", time.Hour)
	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	promoted := user
	promoted.Role = shared.RoleManager
	authn := auth.NewAuthenticator(tokens, auth.NewService(&stubRepo{user: &promoted}), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	var got shared.Principal
	authn.Middleware(principalEcho(&got)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, shared.RoleManager, got.Role)
	assert.Equal(t, shared.ViaBearer, got.Via)
}

func TestAuthenticatorRequire(t *testing.T) {
	authn := auth.NewAuthenticator(auth.NewTokenIssuer("secret", time.Hour), nil, nil)
	handler := authn.Middleware(authn.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestTokenExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := auth.NewTokenIssuer("secret", time.Hour).WithClock(func() time.Time { return now })
	token, expiresAt, err := tokens.Issue(auth.User{ID: 4, Role: shared.RoleManager})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(4), claims.UserID)

	later := auth.NewTokenIssuer("secret", time.Hour).WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = later.Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	other := auth.NewTokenIssuer("different", time.Hour).WithClock(func() time.Time { return now })
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
