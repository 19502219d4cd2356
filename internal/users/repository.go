package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by tenant and identity-provider subject.
func (r *Repository) GetByID(ctx context.Context, tenantID, userID string) (*models.User, error) {
	const q = `SELECT tenant_id, user_id, email_hash, encrypted_email, encrypted_display_name, role,
		created_at, updated_at FROM users WHERE tenant_id = $1 AND user_id = $2`
	var u models.User
	var role string
	err := r.pool.QueryRow(ctx, q, tenantID, userID).Scan(&u.TenantID, &u.UserID, &u.EmailHash,
		&u.EncryptedEmail, &u.EncryptedDisplayName, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// Upsert inserts u, or updates the mutable fields of the existing record with the same key.
// The statement is atomic; inserted reports which branch ran. created_at is kept on update.
// A record whose updated_at is older than the stored one changes nothing and yields ErrStaleRecord.
func (r *Repository) Upsert(ctx context.Context, u *models.User) (inserted bool, err error) {
	const q = `INSERT INTO users (tenant_id, user_id, email_hash, encrypted_email, encrypted_display_name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			email_hash = EXCLUDED.email_hash,
			encrypted_email = EXCLUDED.encrypted_email,
			encrypted_display_name = EXCLUDED.encrypted_display_name,
			role = EXCLUDED.role,
			updated_at = EXCLUDED.updated_at
		WHERE users.updated_at <= EXCLUDED.updated_at
		RETURNING created_at, updated_at, (xmax = 0) AS inserted`
	err = r.pool.QueryRow(ctx, q, u.TenantID, u.UserID, u.EmailHash, u.EncryptedEmail,
		u.EncryptedDisplayName, string(u.Role), u.UpdatedAt).Scan(&u.CreatedAt, &u.UpdatedAt, &inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrStaleRecord
	}
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}
	return inserted, nil
}
