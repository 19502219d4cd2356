// Package schedules runs ordering windows: bounded time ranges offering a fixed snapshot of menu items,
// moving through draft, active and closed.
//
// Status and time window are independent. Customers only see schedules that are active and whose window
// contains the current instant; nothing closes a schedule automatically when its window ends.
package schedules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

// Store persists schedules. Get and Update report unknown ids as apperr NotFound.
type Store interface {
	Create(ctx context.Context, s *models.Schedule) error
	Get(ctx context.Context, tenantID, scheduleID string) (*models.Schedule, error)
	ListAll(ctx context.Context, tenantID string) ([]models.Schedule, error)
	ListByStatusPrefix(ctx context.Context, tenantID, prefix string) ([]models.Schedule, error)
	Update(ctx context.Context, tenantID, scheduleID string, patch models.SchedulePatch, updatedAt time.Time) (*models.Schedule, error)
	// DeleteDraft removes the schedule only while its status is draft; deleted is false otherwise.
	DeleteDraft(ctx context.Context, tenantID, scheduleID string) (deleted bool, err error)
}

// MenuLookup fetches menu items in one batch. Unknown ids are left out of the result.
type MenuLookup interface {
	GetMany(ctx context.Context, tenantID string, menuItemIDs []string) ([]models.MenuItem, error)
}

// Engine implements schedule operations for a resolved caller.
type Engine struct {
	store  Store
	menu   MenuLookup
	logger *zap.Logger
	nowF   func() time.Time
}

// NewEngine creates a schedule engine.
func NewEngine(store Store, menu MenuLookup, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, menu: menu, logger: logger, nowF: time.Now}
}

// Create validates the input, snapshots the referenced menu items and stores a draft schedule.
// Nothing is written unless every referenced item exists and is active.
func (e *Engine) Create(ctx context.Context, caller auth.Identity, in models.CreateScheduleInput) (*models.Schedule, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	ids := make([]string, len(in.Items))
	for i, it := range in.Items {
		ids[i] = it.MenuItemID
	}
	found, err := e.menu.GetMany(ctx, caller.TenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch menu items: %w", err)
	}
	byID := make(map[string]models.MenuItem, len(found))
	for _, m := range found {
		byID[m.MenuItemID] = m
	}
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return nil, apperr.Validationf("Menu item not found: %s", id)
		}
		if !m.IsActive {
			return nil, apperr.Validationf("Menu item is inactive: %s", id)
		}
	}

	items := make([]models.ScheduleItem, len(in.Items))
	for i, it := range in.Items {
		m := byID[it.MenuItemID]
		items[i] = models.ScheduleItem{
			MenuItemID:        m.MenuItemID,
			Name:              m.Name,
			Price:             m.Price,
			TotalQuantity:     it.TotalQuantity,
			RemainingQuantity: it.TotalQuantity,
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}
	now := e.nowF().UTC()
	start, end := in.StartTime.UTC(), in.EndTime.UTC()
	s := &models.Schedule{
		TenantID:           caller.TenantID,
		ScheduleID:         id.String(),
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		PickupInstructions: in.PickupInstructions,
		StartTime:          start,
		EndTime:            end,
		Status:             models.ScheduleDraft,
		StatusStartTime:    models.SortKey(models.ScheduleDraft, start),
		Items:              items,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, err
	}
	e.logger.Info("schedule created",
		zap.String("schedule_id", s.ScheduleID),
		zap.String("tenant_id", s.TenantID),
		zap.Int("items", len(s.Items)),
	)
	return s, nil
}

// Get returns one schedule of the caller's tenant.
func (e *Engine) Get(ctx context.Context, caller auth.Identity, id string) (*models.Schedule, error) {
	return e.store.Get(ctx, caller.TenantID, id)
}

// List returns every schedule to admins. Other callers get active schedules whose window contains now.
func (e *Engine) List(ctx context.Context, caller auth.Identity) ([]models.Schedule, error) {
	if caller.IsAdmin() {
		all, err := e.store.ListAll(ctx, caller.TenantID)
		if err != nil {
			return nil, err
		}
		if all == nil {
			all = []models.Schedule{}
		}
		return all, nil
	}
	active, err := e.store.ListByStatusPrefix(ctx, caller.TenantID, models.StatusPrefix(models.ScheduleActive))
	if err != nil {
		return nil, err
	}
	now := e.nowF()
	open := make([]models.Schedule, 0, len(active))
	for i := range active {
		if active[i].OpenAt(now) {
			open = append(open, active[i])
		}
	}
	return open, nil
}

// Update applies the supplied fields. A supplied status must be a legal transition from the current one.
// The sort key is recomputed from the resolved status and start time whenever either is supplied.
func (e *Engine) Update(ctx context.Context, caller auth.Identity, id string, patch models.SchedulePatch) (*models.Schedule, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}
	current, err := e.store.Get(ctx, caller.TenantID, id)
	if err != nil {
		return nil, err
	}

	status := current.Status
	if patch.Status != nil {
		if err := ValidateTransition(current.Status, *patch.Status); err != nil {
			return nil, err
		}
		status = *patch.Status
	}
	start, end := current.StartTime, current.EndTime
	if patch.StartTime != nil {
		t := patch.StartTime.UTC()
		patch.StartTime = &t
		start = t
	}
	if patch.EndTime != nil {
		t := patch.EndTime.UTC()
		patch.EndTime = &t
		end = t
	}
	if !end.After(start) {
		return nil, apperr.Validation("endTime must be after startTime")
	}
	if patch.Status != nil || patch.StartTime != nil {
		key := models.SortKey(status, start)
		patch.StatusStartTime = &key
	} else {
		patch.StatusStartTime = nil
	}

	updated, err := e.store.Update(ctx, caller.TenantID, id, patch, e.nowF().UTC())
	if err != nil {
		return nil, err
	}
	if patch.Status != nil {
		e.logger.Info("schedule status changed",
			zap.String("schedule_id", id),
			zap.String("from", string(current.Status)),
			zap.String("to", string(status)),
		)
	}
	return updated, nil
}

// Delete removes a draft schedule. Schedules in any other status are kept.
func (e *Engine) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if err := auth.RequireAdmin(caller); err != nil {
		return err
	}
	current, err := e.store.Get(ctx, caller.TenantID, id)
	if err != nil {
		return err
	}
	if current.Status != models.ScheduleDraft {
		return apperr.Validation("Only draft schedules can be deleted")
	}
	deleted, err := e.store.DeleteDraft(ctx, caller.TenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.Validation("Only draft schedules can be deleted")
	}
	e.logger.Info("schedule deleted", zap.String("schedule_id", id), zap.String("tenant_id", caller.TenantID))
	return nil
}

func validateCreate(in models.CreateScheduleInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.Validation("Title is required")
	}
	if in.StartTime == nil {
		return apperr.Validation("startTime is required")
	}
	if in.EndTime == nil {
		return apperr.Validation("endTime is required")
	}
	if !in.EndTime.After(*in.StartTime) {
		return apperr.Validation("endTime must be after startTime")
	}
	if len(in.Items) == 0 {
		return apperr.Validation("At least one item is required")
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		if strings.TrimSpace(it.MenuItemID) == "" {
			return apperr.Validation("menuItemId is required")
		}
		if it.TotalQuantity <= 0 {
			return apperr.Validation("Quantity must be a positive integer")
		}
		if _, dup := seen[it.MenuItemID]; dup {
			return apperr.Validationf("Duplicate menu item: %s", it.MenuItemID)
		}
		seen[it.MenuItemID] = struct{}{}
	}
	return nil
}

func validatePatch(p *models.SchedulePatch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return apperr.Validation("Title is required")
		}
		p.Title = &title
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperr.Validationf("Invalid status: %s", *p.Status)
	}
	return nil
}
