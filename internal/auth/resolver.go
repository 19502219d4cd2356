package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

const (
	msgMissingAuth   = "Missing authentication"
	msgInvalidAuth   = "Invalid or expired token"
	msgAdminRequired = "Admin access required"
)

// Identity is the resolved caller of one request.
type Identity struct {
	UserID   string
	TenantID string
	Role     models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// RequireRole fails with a forbidden error unless id holds role.
func RequireRole(id Identity, role models.Role) error {
	if id.Role != role {
		return apperr.Forbidden(msgAdminRequired)
	}
	return nil
}

// RequireAdmin is RequireRole for the admin role.
func RequireAdmin(id Identity) error {
	return RequireRole(id, models.RoleAdmin)
}

// UserLookup loads a stored user. Missing users are reported as apperr NotFound.
type UserLookup interface {
	GetByID(ctx context.Context, tenantID, userID string) (*models.User, error)
}

// Resolver turns an Authorization header into an Identity.
type Resolver struct {
	verifier Verifier
	users    UserLookup
	tenantID string
}

// NewResolver creates a resolver scoped to tenantID.
func NewResolver(verifier Verifier, users UserLookup, tenantID string) *Resolver {
	return &Resolver{verifier: verifier, users: users, tenantID: tenantID}
}

// Resolve verifies the bearer token and loads the matching user record. A missing header, a token that
// fails verification and a subject with no user record are all unauthenticated; store failures are not.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) (Identity, error) {
	if authHeader == "" {
		return Identity{}, apperr.Unauthenticated(msgMissingAuth)
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return Identity{}, apperr.Unauthenticated(msgMissingAuth)
	}
	sub, err := r.verifier.Subject(ctx, strings.TrimSpace(parts[1]))
	if err != nil {
		return Identity{}, apperr.Unauthenticated(msgInvalidAuth)
	}
	user, err := r.users.GetByID(ctx, r.tenantID, sub)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return Identity{}, apperr.Unauthenticated(msgInvalidAuth)
		}
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	return Identity{UserID: user.UserID, TenantID: user.TenantID, Role: user.Role}, nil
}
