package models

import "time"

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User is an authenticated principal. Email and display name are stored sealed; EmailHash is the
// deterministic fingerprint used for admin allow-list matching and de-duplication.
type User struct {
	TenantID             string    `json:"tenantId"`
	UserID               string    `json:"userId"`
	EmailHash            string    `json:"emailHash"`
	EncryptedEmail       string    `json:"-"`
	EncryptedDisplayName string    `json:"-"`
	Role                 Role      `json:"role"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// UserProfile is the decrypted view returned by GET /me.
type UserProfile struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
	TenantID    string `json:"tenantId"`
}
