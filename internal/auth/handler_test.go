package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sellapp/sellapp/internal/auth"
	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
	"github.com/sellapp/sellapp/internal/view"
	_ "github.com/sellapp/sellapp/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, httpx.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, httpx.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func newAuthHandler(t *testing.T, repo auth.Repository) (*auth.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	tokens := auth.NewTokenIssuer("jwt-secret", time.Hour)
	handler := auth.NewHandler(nil, auth.NewService(repo), tokens, templates, sessionManager, csrfManager)
	return handler, sessionManager
}

func withSession(t *testing.T, sm *shared.SessionManager, req *http.Request) (*http.Request, *shared.Session) {
	t.Helper()
	sess, err := sm.Load(context.Background(), req)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess)), sess
}

func TestLoginPage(t *testing.T) {
	handler, sessionManager := newAuthHandler(t, &stubRepo{})

	req, sess := withSession(t, sessionManager, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	res := httptest.NewRecorder()
	handler.ShowLoginForTest(res, req)
	if err := sessionManager.Commit(req.Context(), res, sess); err != nil {
		t.Fatalf("commit session: %v", err)
	}

	if res.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "<form") {
		t.Fatalf("expected login form in body")
	}
	if sess.Get(shared.CSRFSessionKey) == "" {
		t.Fatalf("csrf token not set")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 1, Email: "user@test.local", PasswordHash: hashed(t, "correctpass"), Role: shared.RoleManager, IsActive: true}}
	handler, sessionManager := newAuthHandler(t, repo)

	postData := url.Values{}
	postData.Set("email", "user@test.local")
	postData.Set("password", "wrongpass")

	postReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(postData.Encode()))
	postReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	postReq, sess := withSession(t, sessionManager, postReq)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, postReq)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "Invalid email or password") {
		t.Fatalf("expected error message in response")
	}
	assert.Zero(t, sess.User())
}

func TestLoginSuccessRedirectsByRole(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 3, Email: "admin@test.local", PasswordHash: hashed(t, "adminpass"), Role: shared.RoleSystemAdmin, IsActive: true}}
	handler, sessionManager := newAuthHandler(t, repo)

	form := url.Values{"email": {"admin@test.local"}, "password": {"adminpass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, sess := withSession(t, sessionManager, req)

	res := httptest.NewRecorder()
	handler.HandleLoginForTest(res, req)

	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/dashboard/admin", res.Header().Get("Location"))
	assert.Equal(t, int64(3), sess.User())
	assert.Equal(t, int64(3), repo.sessions[sess.ID])
}

func TestAPILoginIssuesToken(t *testing.T) {
	company := int64(8)
	repo := &stubRepo{user: &auth.User{ID: 9, Email: "m@test.local", Name: "Mara", PasswordHash: hashed(t, "managerpass"), Role: shared.RoleManager, CompanyID: &company, IsActive: true}}
	handler, sessionManager := newAuthHandler(t, repo)
	router := newAPIRouter(handler)

	body := strings.NewReader(`{"email":"m@test.local","password":"managerpass"}`)
	req, _ := withSession(t, sessionManager, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())

	var payload struct {
		Success bool `json:"success"`
		Data    struct {
			Token string        `json:"token"`
			User  auth.UserView `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	assert.True(t, payload.Success)
	assert.NotEmpty(t, payload.Data.Token)
	assert.Equal(t, "manager", payload.Data.User.Role)
	require.NotNil(t, payload.Data.User.CompanyID)
	assert.Equal(t, int64(8), *payload.Data.User.CompanyID)
}

func TestAPILoginRejectsBadPassword(t *testing.T) {
	repo := &stubRepo{user: &auth.User{ID: 9, Email: "m@test.local", PasswordHash: hashed(t, "managerpass"), IsActive: true}}
	handler, sessionManager := newAuthHandler(t, repo)
	router := newAPIRouter(handler)

	body := strings.NewReader(`{"email":"m@test.local","password":"not-the-password"}`)
	req, _ := withSession(t, sessionManager, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), `"success":false`)
}
