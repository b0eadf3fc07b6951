package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

// DepartmentScheduleRepository persists department schedules. Soft-deleted
// rows are excluded from every query.
type DepartmentScheduleRepository struct {
	db *sqlx.DB
}

// NewDepartmentScheduleRepository constructs the repository.
func NewDepartmentScheduleRepository(db *sqlx.DB) *DepartmentScheduleRepository {
	return &DepartmentScheduleRepository{db: db}
}

const departmentScheduleColumns = `id, name, description, schedule_type, status, schedule_config,
department_id, created_by, created_at, updated_at, deleted_at`

var scheduleSortFields = map[string]string{
	"name":          "name",
	"schedule_type": "schedule_type",
	"status":        "status",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
}

// List returns schedules matching the filter plus the unpaginated total.
func (r *DepartmentScheduleRepository) List(ctx context.Context, filter models.DepartmentScheduleFilter) ([]models.DepartmentSchedule, int, error) {
	conditions := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.ScheduleType != "" {
		args = append(args, filter.ScheduleType)
		conditions = append(conditions, fmt.Sprintf("schedule_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.DepartmentID != 0 {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM department_schedules WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count department schedules: %w", err)
	}

	sortField, ok := scheduleSortFields[filter.SortBy]
	if !ok {
		sortField = "created_at"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 10
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM department_schedules WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		departmentScheduleColumns, where, sortField, order, len(args)-1, len(args))

	var schedules []models.DepartmentSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list department schedules: %w", err)
	}
	return schedules, total, nil
}

// GetByID fetches a single live schedule.
func (r *DepartmentScheduleRepository) GetByID(ctx context.Context, id int64) (*models.DepartmentSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM department_schedules WHERE id = $1 AND deleted_at IS NULL`, departmentScheduleColumns)
	var schedule models.DepartmentSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a schedule and fills the generated id and timestamps.
func (r *DepartmentScheduleRepository) Create(ctx context.Context, schedule *models.DepartmentSchedule) error {
	const query = `INSERT INTO department_schedules
(name, description, schedule_type, status, schedule_config, department_id, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING id`
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if err := r.db.QueryRowxContext(ctx, query,
		schedule.Name,
		schedule.Description,
		schedule.ScheduleType,
		schedule.Status,
		schedule.ScheduleConfig,
		schedule.DepartmentID,
		schedule.CreatedBy,
		now,
	).Scan(&schedule.ID); err != nil {
		return fmt.Errorf("create department schedule: %w", err)
	}
	return nil
}

// Update persists mutable fields of an existing schedule.
func (r *DepartmentScheduleRepository) Update(ctx context.Context, schedule *models.DepartmentSchedule) error {
	const query = `UPDATE department_schedules
SET name = $2, description = $3, schedule_config = $4, status = $5, updated_at = $6
WHERE id = $1 AND deleted_at IS NULL`
	schedule.UpdatedAt = time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.Name,
		schedule.Description,
		schedule.ScheduleConfig,
		schedule.Status,
		schedule.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update department schedule: %w", err)
	}
	return nil
}

// UpdateStatus flips only the derived status column.
func (r *DepartmentScheduleRepository) UpdateStatus(ctx context.Context, id int64, status models.ScheduleStatus) error {
	const query = `UPDATE department_schedules SET status = $2, updated_at = $3 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update schedule status: %w", err)
	}
	return nil
}

// SoftDelete stamps the deletion marker.
func (r *DepartmentScheduleRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `UPDATE department_schedules SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete department schedule: %w", err)
	}
	return nil
}

// ListByStatuses returns live schedules whose status is in the given set.
func (r *DepartmentScheduleRepository) ListByStatuses(ctx context.Context, statuses []models.ScheduleStatus) ([]models.DepartmentSchedule, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]interface{}, len(statuses))
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = status
	}
	query := fmt.Sprintf(`SELECT %s FROM department_schedules WHERE deleted_at IS NULL AND status IN (%s) ORDER BY id ASC`,
		departmentScheduleColumns, strings.Join(placeholders, ","))

	var schedules []models.DepartmentSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules by status: %w", err)
	}
	return schedules, nil
}

// ListAll returns every live schedule regardless of status.
func (r *DepartmentScheduleRepository) ListAll(ctx context.Context) ([]models.DepartmentSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM department_schedules WHERE deleted_at IS NULL ORDER BY id ASC`, departmentScheduleColumns)
	var schedules []models.DepartmentSchedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list all schedules: %w", err)
	}
	return schedules, nil
}

// StatusStats counts live schedules per status.
func (r *DepartmentScheduleRepository) StatusStats(ctx context.Context) (models.ScheduleStatusStats, error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE status = 'active') AS active,
COUNT(*) FILTER (WHERE status = 'inactive') AS inactive,
COUNT(*) FILTER (WHERE status = 'expired') AS expired,
COUNT(*) AS total
FROM department_schedules WHERE deleted_at IS NULL`
	var stats models.ScheduleStatusStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return models.ScheduleStatusStats{}, fmt.Errorf("schedule status stats: %w", err)
	}
	return stats, nil
}
