package menu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

const menuItemColumns = `tenant_id, menu_item_id, name, description, price::text, image_url, category, is_active, created_at, updated_at`

// Repository handles menu item persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a menu repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMenuItem(row pgx.Row) (*models.MenuItem, error) {
	var m models.MenuItem
	var price string
	if err := row.Scan(&m.TenantID, &m.MenuItemID, &m.Name, &m.Description, &price, &m.ImageURL,
		&m.Category, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price %q: %w", price, err)
	}
	m.Price = d
	return &m, nil
}

func notFound() error {
	return apperr.NotFound("Menu item not found")
}

// Create inserts a menu item.
func (r *Repository) Create(ctx context.Context, m *models.MenuItem) error {
	const q = `INSERT INTO menu_items (tenant_id, menu_item_id, name, description, price, image_url, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, ($5::text)::numeric, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, q, m.TenantID, m.MenuItemID, m.Name, m.Description, m.Price.String(), m.ImageURL,
		m.Category, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

// Get returns a menu item by id.
func (r *Repository) Get(ctx context.Context, tenantID, menuItemID string) (*models.MenuItem, error) {
	q := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND menu_item_id = $2`
	m, err := scanMenuItem(r.pool.QueryRow(ctx, q, tenantID, menuItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return m, nil
}

// GetMany returns the items among ids that exist, in one round trip. Missing ids are simply absent.
func (r *Repository) GetMany(ctx context.Context, tenantID string, menuItemIDs []string) ([]models.MenuItem, error) {
	if len(menuItemIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE tenant_id = $1 AND menu_item_id = ANY($2)`
	return r.query(ctx, q, tenantID, menuItemIDs)
}

// List returns the tenant's items ordered by category then name.
func (r *Repository) List(ctx context.Context, tenantID string, includeInactive bool) ([]models.MenuItem, error) {
	q := `SELECT ` + menuItemColumns + ` FROM menu_items
		WHERE tenant_id = $1 AND ($2 OR is_active)
		ORDER BY category, name, menu_item_id`
	return r.query(ctx, q, tenantID, includeInactive)
}

func (r *Repository) query(ctx context.Context, q string, args ...interface{}) ([]models.MenuItem, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()
	var list []models.MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// Update writes the non-nil fields of patch and always refreshes updated_at.
func (r *Repository) Update(ctx context.Context, tenantID, menuItemID string, patch models.MenuItemPatch, updatedAt time.Time) (*models.MenuItem, error) {
	var price *string
	if patch.Price != nil {
		s := patch.Price.String()
		price = &s
	}
	q := `UPDATE menu_items SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			price = COALESCE(($5::text)::numeric, price),
			image_url = COALESCE($6, image_url),
			category = COALESCE($7, category),
			is_active = COALESCE($8, is_active),
			updated_at = $9
		WHERE tenant_id = $1 AND menu_item_id = $2
		RETURNING ` + menuItemColumns
	m, err := scanMenuItem(r.pool.QueryRow(ctx, q, tenantID, menuItemID,
		patch.Name, patch.Description, price, patch.ImageURL, patch.Category, patch.IsActive, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("update menu item: %w", err)
	}
	return m, nil
}
