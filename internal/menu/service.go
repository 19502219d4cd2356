// Package menu manages the tenant's menu catalog: purchasable items with a price, a category and an active
// flag. Deletion is soft; inactive items stay fetchable but cannot be added to new schedules.
package menu

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
	"github.com/fooder/backend/pkg/storage"
)

// Store persists menu items. Get and Update report unknown ids as apperr NotFound.
type Store interface {
	Create(ctx context.Context, item *models.MenuItem) error
	Get(ctx context.Context, tenantID, menuItemID string) (*models.MenuItem, error)
	GetMany(ctx context.Context, tenantID string, menuItemIDs []string) ([]models.MenuItem, error)
	List(ctx context.Context, tenantID string, includeInactive bool) ([]models.MenuItem, error)
	Update(ctx context.Context, tenantID, menuItemID string, patch models.MenuItemPatch, updatedAt time.Time) (*models.MenuItem, error)
}

// ImageStore holds menu item images.
type ImageStore interface {
	PresignMenuImageUpload(ctx context.Context, key, contentType string) (string, time.Duration, error)
	UploadMenuImage(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	MenuImageURL(key string) string
}

// ImageUploadRequest describes an image the client intends to upload directly to storage.
type ImageUploadRequest struct {
	ContentType string `json:"contentType"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
}

// ImageUploadTicket is a pre-signed upload target. ImageURL is the value to store on the item afterwards.
type ImageUploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	Key       string    `json:"key"`
	ImageURL  string    `json:"imageUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service implements catalog operations for a resolved caller.
type Service struct {
	store  Store
	images ImageStore
	logger *zap.Logger
	nowF   func() time.Time
}

// NewService creates a menu service. images may be nil when no bucket is configured.
func NewService(store Store, images ImageStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, images: images, logger: logger, nowF: time.Now}
}

// Create adds an active item. Admin only.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in models.CreateMenuItemInput) (*models.MenuItem, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	now := s.nowF().UTC()
	item := &models.MenuItem{
		TenantID:    caller.TenantID,
		MenuItemID:  id.String(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       *in.Price,
		ImageURL:    in.ImageURL,
		Category:    strings.TrimSpace(in.Category),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info("menu item created", zap.String("menu_item_id", item.MenuItemID), zap.String("tenant_id", item.TenantID))
	return item, nil
}

// Get returns one item of the caller's tenant.
func (s *Service) Get(ctx context.Context, caller auth.Identity, id string) (*models.MenuItem, error) {
	return s.store.Get(ctx, caller.TenantID, id)
}

// List returns the tenant's items. Only admins may see inactive items; for anyone else includeInactive
// is ignored.
func (s *Service) List(ctx context.Context, caller auth.Identity, includeInactive bool) ([]models.MenuItem, error) {
	if !caller.IsAdmin() {
		includeInactive = false
	}
	items, err := s.store.List(ctx, caller.TenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.MenuItem{}
	}
	return items, nil
}

// Update applies the supplied fields. Admin only.
func (s *Service) Update(ctx context.Context, caller auth.Identity, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}
	return s.store.Update(ctx, caller.TenantID, id, patch, s.nowF().UTC())
}

// Delete deactivates the item; the record is kept. Admin only.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}
	inactive := false
	if _, err := s.store.Update(ctx, caller.TenantID, id, models.MenuItemPatch{IsActive: &inactive}, s.nowF().UTC()); err != nil {
		return err
	}
	s.logger.Info("menu item deactivated", zap.String("menu_item_id", id), zap.String("tenant_id", caller.TenantID))
	return nil
}

// ImageUploadURL issues a pre-signed upload target for a new item image. Admin only.
func (s *Service) ImageUploadURL(ctx context.Context, caller auth.Identity, in ImageUploadRequest) (*ImageUploadTicket, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage not configured")
	}
	ct, err := checkImage(in.ContentType, in.Filename, in.Size)
	if err != nil {
		return nil, err
	}
	name, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	key := storage.MenuImageKey(caller.TenantID, name.String(), ct)
	uploadURL, expires, err := s.images.PresignMenuImageUpload(ctx, key, ct)
	if err != nil {
		return nil, err
	}
	return &ImageUploadTicket{
		UploadURL: uploadURL,
		Key:       key,
		ImageURL:  s.images.MenuImageURL(key),
		ExpiresAt: s.nowF().UTC().Add(expires),
	}, nil
}

// UploadImage stores body as the image of item id and points the item at it. Admin only.
func (s *Service) UploadImage(ctx context.Context, caller auth.Identity, id, contentType, filename string, body io.Reader, size int64) (*models.MenuItem, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if s.images == nil {
		return nil, fmt.Errorf("image storage not configured")
	}
	ct, err := checkImage(contentType, filename, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Get(ctx, caller.TenantID, id); err != nil {
		return nil, err
	}
	name, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	imageURL, err := s.images.UploadMenuImage(ctx, storage.MenuImageKey(caller.TenantID, name.String(), ct), ct, body, size)
	if err != nil {
		return nil, err
	}
	return s.store.Update(ctx, caller.TenantID, id, models.MenuItemPatch{ImageURL: &imageURL}, s.nowF().UTC())
}

func checkImage(contentType, filename string, size int64) (string, error) {
	ct, ok := storage.ImageContentType(contentType, filename)
	if !ok {
		return "", apperr.Validation("Image must be JPEG, PNG, WebP or GIF")
	}
	if size < 0 || size > storage.MaxMenuImageSize {
		return "", apperr.Validationf("Image must be at most %d MB", storage.MaxMenuImageSize/(1024*1024))
	}
	return ct, nil
}

func validateCreate(in models.CreateMenuItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("Name is required")
	}
	if in.Price == nil {
		return apperr.Validation("Price must be positive")
	}
	if err := validatePrice(*in.Price); err != nil {
		return err
	}
	if strings.TrimSpace(in.Category) == "" {
		return apperr.Validation("Category is required")
	}
	return validateImageURL(in.ImageURL)
}

// validatePatch checks only the supplied fields and trims names in place.
func validatePatch(p *models.MenuItemPatch) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return apperr.Validation("Name is required")
		}
		p.Name = &name
	}
	if p.Price != nil {
		if err := validatePrice(*p.Price); err != nil {
			return err
		}
	}
	if p.Category != nil {
		category := strings.TrimSpace(*p.Category)
		if category == "" {
			return apperr.Validation("Category is required")
		}
		p.Category = &category
	}
	return validateImageURL(p.ImageURL)
}

// maxPrice is the exclusive upper bound of the NUMERIC(12, 2) price column.
var maxPrice = decimal.New(1, 10)

// validatePrice accepts only values the price column stores exactly.
func validatePrice(p decimal.Decimal) error {
	if !p.IsPositive() {
		return apperr.Validation("Price must be positive")
	}
	if !p.Equal(p.Round(2)) {
		return apperr.Validation("Price must have at most 2 decimal places")
	}
	if p.GreaterThanOrEqual(maxPrice) {
		return apperr.Validation("Price must be less than 10000000000")
	}
	return nil
}

func validateImageURL(raw *string) error {
	if raw == nil {
		return nil
	}
	u, err := url.Parse(*raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperr.Validation("Image URL must be a valid URL")
	}
	return nil
}

