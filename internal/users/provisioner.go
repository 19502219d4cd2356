package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/internal/pii"
	"github.com/fooder/backend/pkg/apperr"
)

// ConfirmedPrincipal is what the identity provider reports after a sign-up is confirmed.
type ConfirmedPrincipal struct {
	SubjectID   string `json:"subjectId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Validate checks the fields provisioning needs.
func (p ConfirmedPrincipal) Validate() error {
	if strings.TrimSpace(p.SubjectID) == "" {
		return apperr.Validation("subjectId is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return apperr.Validation("email is required")
	}
	return nil
}

// ErrStaleRecord is returned by Upsert when the stored record was confirmed later than the one offered.
var ErrStaleRecord = errors.New("a newer user record is already stored")

// UserUpserter persists a user, creating it or updating the existing record atomically.
type UserUpserter interface {
	Upsert(ctx context.Context, u *models.User) (inserted bool, err error)
}

// Recorder upserts prepared user records.
type Recorder struct {
	users  UserUpserter
	logger *zap.Logger
}

// NewRecorder creates a recorder.
func NewRecorder(users UserUpserter, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{users: users, logger: logger}
}

// Store upserts a prepared record. A record older than the stored one is dropped without error.
func (r *Recorder) Store(ctx context.Context, u *models.User) error {
	inserted, err := r.users.Upsert(ctx, u)
	if errors.Is(err, ErrStaleRecord) {
		r.logger.Info("stale user record skipped",
			zap.String("user_id", u.UserID),
			zap.Time("confirmed_at", u.UpdatedAt),
		)
		return nil
	}
	if err != nil {
		return err
	}
	r.logger.Info("user provisioned",
		zap.String("user_id", u.UserID),
		zap.String("role", string(u.Role)),
		zap.Bool("inserted", inserted),
	)
	return nil
}

// Provisioner turns a confirmed principal into a sealed user record ready for the Recorder.
type Provisioner struct {
	sealer   pii.Sealer
	admins   pii.AdminAllowList
	tenantID string
	nowF     func() time.Time
}

// NewProvisioner creates a provisioner for tenantID.
func NewProvisioner(sealer pii.Sealer, admins pii.AdminAllowList, tenantID string) *Provisioner {
	return &Provisioner{
		sealer:   sealer,
		admins:   admins,
		tenantID: tenantID,
		nowF:     time.Now,
	}
}

// Prepare fingerprints and seals the principal's email and display name and derives the role from the
// admin allow-list. The returned record holds no plaintext PII. Sealing failures are returned as is.
func (p *Provisioner) Prepare(ctx context.Context, in ConfirmedPrincipal) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	hash := pii.Fingerprint(in.Email)
	encEmail, err := p.sealer.Seal(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		return nil, fmt.Errorf("seal email: %w", err)
	}
	encName, err := p.sealer.Seal(ctx, strings.TrimSpace(in.DisplayName))
	if err != nil {
		return nil, fmt.Errorf("seal display name: %w", err)
	}
	role := models.RoleCustomer
	if p.admins.Contains(hash) {
		role = models.RoleAdmin
	}
	now := p.nowF().UTC()
	return &models.User{
		TenantID:             p.tenantID,
		UserID:               strings.TrimSpace(in.SubjectID),
		EmailHash:            hash,
		EncryptedEmail:       encEmail,
		EncryptedDisplayName: encName,
		Role:                 role,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}
