package schedules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

const scheduleColumns = `tenant_id, schedule_id, title, description, pickup_instructions, start_time, end_time,
	status, status_start_time, items, created_at, updated_at`

// Repository handles schedule persistence. Items are stored as a JSONB snapshot.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a schedule repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSchedule(row pgx.Row) (*models.Schedule, error) {
	var s models.Schedule
	var status string
	var items []byte
	if err := row.Scan(&s.TenantID, &s.ScheduleID, &s.Title, &s.Description, &s.PickupInstructions,
		&s.StartTime, &s.EndTime, &status, &s.StatusStartTime, &items, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = models.ScheduleStatus(status)
	if err := json.Unmarshal(items, &s.Items); err != nil {
		return nil, fmt.Errorf("decode items of %s: %w", s.ScheduleID, err)
	}
	s.StartTime, s.EndTime = s.StartTime.UTC(), s.EndTime.UTC()
	return &s, nil
}

func notFound() error {
	return apperr.NotFound("Schedule not found")
}

// Create inserts a schedule.
func (r *Repository) Create(ctx context.Context, s *models.Schedule) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	const q = `INSERT INTO schedules (tenant_id, schedule_id, title, description, pickup_instructions, start_time, end_time,
			status, status_start_time, items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err = r.pool.Exec(ctx, q, s.TenantID, s.ScheduleID, s.Title, s.Description, s.PickupInstructions,
		s.StartTime, s.EndTime, string(s.Status), s.StatusStartTime, items, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// Get returns a schedule by id.
func (r *Repository) Get(ctx context.Context, tenantID, scheduleID string) (*models.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = $1 AND schedule_id = $2`
	s, err := scanSchedule(r.pool.QueryRow(ctx, q, tenantID, scheduleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

// ListAll returns every schedule of the tenant, ordered by status then start time.
func (r *Repository) ListAll(ctx context.Context, tenantID string) ([]models.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = $1 ORDER BY status_start_time, schedule_id`
	return r.query(ctx, q, tenantID)
}

// ListByStatusPrefix returns schedules whose sort key starts with prefix, ordered by sort key.
// Served by the (tenant_id, status_start_time text_pattern_ops) index.
func (r *Repository) ListByStatusPrefix(ctx context.Context, tenantID, prefix string) ([]models.Schedule, error) {
	q := `SELECT ` + scheduleColumns + ` FROM schedules
		WHERE tenant_id = $1 AND status_start_time LIKE $2
		ORDER BY status_start_time, schedule_id`
	return r.query(ctx, q, tenantID, escapeLike(prefix)+"%")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *Repository) query(ctx context.Context, q string, args ...interface{}) ([]models.Schedule, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()
	var list []models.Schedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Update writes the non-nil fields of patch and always refreshes updated_at. Items are never touched.
func (r *Repository) Update(ctx context.Context, tenantID, scheduleID string, patch models.SchedulePatch, updatedAt time.Time) (*models.Schedule, error) {
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	q := `UPDATE schedules SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			pickup_instructions = COALESCE($5, pickup_instructions),
			start_time = COALESCE($6, start_time),
			end_time = COALESCE($7, end_time),
			status = COALESCE($8, status),
			status_start_time = COALESCE($9, status_start_time),
			updated_at = $10
		WHERE tenant_id = $1 AND schedule_id = $2
		RETURNING ` + scheduleColumns
	s, err := scanSchedule(r.pool.QueryRow(ctx, q, tenantID, scheduleID,
		patch.Title, patch.Description, patch.PickupInstructions, patch.StartTime, patch.EndTime,
		status, patch.StatusStartTime, updatedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound()
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return s, nil
}

// DeleteDraft deletes the schedule if it is still a draft.
func (r *Repository) DeleteDraft(ctx context.Context, tenantID, scheduleID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE tenant_id = $1 AND schedule_id = $2 AND status = $3`,
		tenantID, scheduleID, string(models.ScheduleDraft))
	if err != nil {
		return false, fmt.Errorf("delete schedule: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
