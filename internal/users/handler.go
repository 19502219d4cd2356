package users

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/middleware"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/internal/pii"
	"github.com/fooder/backend/pkg/queue"
	"github.com/fooder/backend/pkg/request"
	"github.com/fooder/backend/pkg/response"
)

// UserGetter loads a stored user.
type UserGetter interface {
	GetByID(ctx context.Context, tenantID, userID string) (*models.User, error)
}

// ProvisioningQueue accepts prepared user records for asynchronous storage.
type ProvisioningQueue interface {
	EnqueueUserProvisioning(ctx context.Context, payload queue.UserProvisioningPayload) (string, error)
}

// EnqueuedJob is the 202 payload of the confirmation hook.
type EnqueuedJob struct {
	JobID string `json:"jobId"`
}

// Handler serves the caller's profile and the identity-provider confirmation hook.
type Handler struct {
	users       UserGetter
	sealer      pii.Sealer
	provisioner *Provisioner
	queue       ProvisioningQueue
	logger      *zap.Logger
}

// NewHandler creates a users handler.
func NewHandler(users UserGetter, sealer pii.Sealer, provisioner *Provisioner, q ProvisioningQueue, logger *zap.Logger) *Handler {
	return &Handler{users: users, sealer: sealer, provisioner: provisioner, queue: q, logger: logger}
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	id, ok := middleware.Caller(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	u, err := h.users.GetByID(ctx, id.TenantID, id.UserID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	email, err := h.sealer.Unseal(ctx, u.EncryptedEmail)
	if err != nil {
		response.Error(c, h.logger, fmt.Errorf("unseal email: %w", err))
		return
	}
	name, err := h.sealer.Unseal(ctx, u.EncryptedDisplayName)
	if err != nil {
		response.Error(c, h.logger, fmt.Errorf("unseal display name: %w", err))
		return
	}
	response.OK(c, models.UserProfile{
		UserID:      u.UserID,
		Email:       email,
		DisplayName: name,
		Role:        u.Role,
		TenantID:    u.TenantID,
	})
}

// IdentityConfirmed handles POST /hooks/identity/confirmed. The principal is sealed here so the queued
// job never carries plaintext PII; the worker performs the upsert.
func (h *Handler) IdentityConfirmed(c *gin.Context) {
	var in ConfirmedPrincipal
	if err := request.BindJSON(c, &in); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	ctx := c.Request.Context()
	u, err := h.provisioner.Prepare(ctx, in)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	jobID, err := h.queue.EnqueueUserProvisioning(ctx, ToPayload(u))
	if err != nil {
		response.Error(c, h.logger, fmt.Errorf("enqueue provisioning: %w", err))
		return
	}
	response.Accepted(c, EnqueuedJob{JobID: jobID})
}
