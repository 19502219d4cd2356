package users

import (
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/queue"
)

// ToPayload converts a prepared record into a provisioning job payload.
func ToPayload(u *models.User) queue.UserProvisioningPayload {
	return queue.UserProvisioningPayload{
		TenantID:             u.TenantID,
		UserID:               u.UserID,
		EmailHash:            u.EmailHash,
		EncryptedEmail:       u.EncryptedEmail,
		EncryptedDisplayName: u.EncryptedDisplayName,
		Role:                 string(u.Role),
		ConfirmedAt:          u.UpdatedAt,
	}
}

// FromPayload rebuilds the prepared record carried by a provisioning job.
func FromPayload(p queue.UserProvisioningPayload) *models.User {
	return &models.User{
		TenantID:             p.TenantID,
		UserID:               p.UserID,
		EmailHash:            p.EmailHash,
		EncryptedEmail:       p.EncryptedEmail,
		EncryptedDisplayName: p.EncryptedDisplayName,
		Role:                 models.Role(p.Role),
		CreatedAt:            p.ConfirmedAt,
		UpdatedAt:            p.ConfirmedAt,
	}
}
