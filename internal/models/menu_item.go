package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers (12.99), not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MenuItem is a purchasable catalog entry. Identity is (TenantID, MenuItemID).
type MenuItem struct {
	TenantID    string          `json:"tenantId"`
	MenuItemID  string          `json:"menuItemId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	Category    string          `json:"category"`
	IsActive    bool            `json:"isActive"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateMenuItemInput is the body for POST /menu-items.
type CreateMenuItemInput struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
	Category    string           `json:"category"`
}

// MenuItemPatch lists the menu item fields an update may set. Nil fields are left untouched.
type MenuItemPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	ImageURL    *string          `json:"imageUrl"`
	Category    *string          `json:"category"`
	IsActive    *bool            `json:"isActive"`
}
