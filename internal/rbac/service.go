package rbac

import (
	"context"
	"sort"
	"strings"

	"github.com/sellapp/sellapp/internal/platform/db"
	"github.com/sellapp/sellapp/internal/shared"
)

// GrantSource returns permissions granted to a user on top of their role.
type GrantSource interface {
	UserGrants(ctx context.Context, userID int64) ([]string, error)
}

// Service resolves effective permissions.
type Service struct {
	grants GrantSource
}

// NewService constructs a Service. grants may be nil.
func NewService(grants GrantSource) *Service {
	return &Service{grants: grants}
}

// EffectivePermissions merges role scopes with per-user grants.
func (s *Service) EffectivePermissions(ctx context.Context, p shared.Principal) ([]string, error) {
	perms := shared.RoleScopes(p.Role)
	if s != nil && s.grants != nil {
		extra, err := s.grants.UserGrants(ctx, p.UserID)
		if err != nil {
			return nil, err
		}
		perms = append(perms, extra...)
	}
	normalized := normalizePermissions(perms)
	sort.Strings(normalized)
	return normalized, nil
}

// PGGrants reads user_permissions rows.
type PGGrants struct {
	db db.DBTX
}

// NewPGGrants builds a GrantSource backed by Postgres.
func NewPGGrants(conn db.DBTX) *PGGrants {
	return &PGGrants{db: conn}
}

// UserGrants implements GrantSource.
func (g *PGGrants) UserGrants(ctx context.Context, userID int64) ([]string, error) {
	rows, err := g.db.Query(ctx, `SELECT permission FROM user_permissions WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, err
		}
		perms = append(perms, strings.TrimSpace(perm))
	}
	return perms, rows.Err()
}
