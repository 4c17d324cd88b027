package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sellapp/sellapp/internal/platform/httpx"
	"github.com/sellapp/sellapp/internal/shared"
)

// UserLookup resolves the user behind a session or bearer token.
type UserLookup interface {
	ActiveUser(ctx context.Context, id int64) (*User, error)
}

// Authenticator resolves the request principal from a bearer token, falling
// back to the session cookie.
type Authenticator struct {
	tokens *TokenIssuer
	users  UserLookup
	logger *slog.Logger
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(tokens *TokenIssuer, users UserLookup, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Middleware attaches the principal when one can be resolved. It never
// rejects a request; use Require for that.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := a.resolve(r); ok {
			r = r.WithContext(shared.ContextWithPrincipal(r.Context(), principal))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a principal.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			httpx.Fail(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePage redirects anonymous browser requests to the login page.
func (a *Authenticator) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.PrincipalFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) resolve(r *http.Request) (shared.Principal, bool) {
	if raw := bearerToken(r); raw != "" && a.tokens != nil {
		claims, err := a.tokens.Parse(raw)
		switch {
		case err != nil:
			a.logger.Debug("bearer token rejected", slog.Any("error", err))
		case a.users == nil:
			return shared.Principal{
				UserID:    claims.UserID,
				Email:     claims.Email,
				Name:      claims.Name,
				Role:      claims.Role,
				CompanyID: claims.CompanyID,
				Via:       shared.ViaBearer,
			}, true
		default:
			// a valid token does not outlive its account
			user, err := a.users.ActiveUser(r.Context(), claims.UserID)
			if err == nil {
				return user.Principal(shared.ViaBearer), true
			}
			a.logger.Warn("bearer user lookup", slog.Int64("user_id", claims.UserID), slog.Any("error", err))
		}
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == 0 || a.users == nil {
		return shared.Principal{}, false
	}
	user, err := a.users.ActiveUser(r.Context(), sess.User())
	if err != nil {
		a.logger.Warn("session user lookup", slog.Int64("user_id", sess.User()), slog.Any("error", err))
		return shared.Principal{}, false
	}
	return user.Principal(shared.ViaSession), true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
