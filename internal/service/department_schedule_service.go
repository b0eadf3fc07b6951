package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nkc-crm/campaign-sync-api/internal/dto"
	"github.com/nkc-crm/campaign-sync-api/internal/models"
	appErrors "github.com/nkc-crm/campaign-sync-api/pkg/errors"
)

type departmentScheduleRepository interface {
	List(ctx context.Context, filter models.DepartmentScheduleFilter) ([]models.DepartmentSchedule, int, error)
	GetByID(ctx context.Context, id int64) (*models.DepartmentSchedule, error)
	Create(ctx context.Context, schedule *models.DepartmentSchedule) error
	Update(ctx context.Context, schedule *models.DepartmentSchedule) error
	SoftDelete(ctx context.Context, id int64) error
	ListByStatuses(ctx context.Context, statuses []models.ScheduleStatus) ([]models.DepartmentSchedule, error)
}

// DepartmentScheduleService owns the CRUD lifecycle of department
// schedules. Configs are validated synchronously before persistence; a
// malformed config is rejected, never silently repaired.
type DepartmentScheduleService struct {
	repo      departmentScheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentScheduleService constructs the service.
func NewDepartmentScheduleService(repo departmentScheduleRepository, validate *validator.Validate, logger *zap.Logger) *DepartmentScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentScheduleService{repo: repo, validator: validate, logger: logger}
}

// Create validates the config and persists a new schedule.
func (s *DepartmentScheduleService) Create(ctx context.Context, req dto.CreateDepartmentScheduleRequest) (*models.DepartmentSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	scheduleType := models.ScheduleType(req.ScheduleType)
	config := configFromRequest(req.Config)
	if err := validateScheduleConfig(config, scheduleType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidScheduleConfig.Code, appErrors.ErrInvalidScheduleConfig.Status, err.Error())
	}

	schedule := &models.DepartmentSchedule{
		Name:           req.Name,
		Description:    req.Description,
		ScheduleType:   scheduleType,
		Status:         models.ScheduleStatusActive,
		ScheduleConfig: config,
		DepartmentID:   req.DepartmentID,
		CreatedBy:      req.CreatedBy,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department schedule")
	}

	s.logger.Info("department schedule created",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("schedule_type", string(schedule.ScheduleType)),
	)
	return schedule, nil
}

// Get returns one schedule by id.
func (s *DepartmentScheduleService) Get(ctx context.Context, id int64) (*models.DepartmentSchedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("department schedule %d not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department schedule")
	}
	return schedule, nil
}

// List returns schedules matching the filters with pagination metadata.
func (s *DepartmentScheduleService) List(ctx context.Context, req dto.ListDepartmentSchedulesRequest) ([]models.DepartmentSchedule, *models.Pagination, error) {
	filter := models.DepartmentScheduleFilter{
		Name:         req.Name,
		ScheduleType: models.ScheduleType(req.ScheduleType),
		Status:       models.ScheduleStatus(req.Status),
		DepartmentID: req.DepartmentID,
		Page:         req.Page,
		PageSize:     req.Limit,
		SortBy:       req.Sort,
		SortOrder:    req.Order,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list department schedules")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return schedules, pagination, nil
}

// Update applies a partial update. A config change is re-validated with the
// same rules as creation. Status can only be flipped between active and
// inactive here; the expired state belongs to the status engine.
func (s *DepartmentScheduleService) Update(ctx context.Context, id int64, req dto.UpdateDepartmentScheduleRequest) (*models.DepartmentSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.Description != nil {
		schedule.Description = req.Description
	}
	if req.Config != nil {
		config := configFromRequest(*req.Config)
		if err := validateScheduleConfig(config, schedule.ScheduleType); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidScheduleConfig.Code, appErrors.ErrInvalidScheduleConfig.Status, err.Error())
		}
		schedule.ScheduleConfig = config
	}
	if req.Status != nil {
		schedule.Status = models.ScheduleStatus(*req.Status)
	}

	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update department schedule")
	}
	return schedule, nil
}

// Delete soft-deletes a schedule; engine scans skip it from then on.
func (s *DepartmentScheduleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department schedule")
	}
	return nil
}

// ListActive returns live schedules currently in the active state.
func (s *DepartmentScheduleService) ListActive(ctx context.Context) ([]models.DepartmentSchedule, error) {
	schedules, err := s.repo.ListByStatuses(ctx, []models.ScheduleStatus{models.ScheduleStatusActive})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active schedules")
	}
	return schedules, nil
}

// WindowDetails computes the schedule's current activation window.
func (s *DepartmentScheduleService) WindowDetails(ctx context.Context, id int64) (models.ScheduleWindowDetails, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return models.ScheduleWindowDetails{}, err
	}
	details, err := ScheduleWindowDetails(schedule.ScheduleConfig, schedule.ScheduleType, time.Now())
	if err != nil {
		return models.ScheduleWindowDetails{}, appErrors.Wrap(err, appErrors.ErrInvalidScheduleConfig.Code, appErrors.ErrInvalidScheduleConfig.Status, err.Error())
	}
	return details, nil
}

func configFromRequest(req dto.ScheduleConfigRequest) models.ScheduleConfig {
	config := models.ScheduleConfig{Type: models.ScheduleType(req.Type)}
	for _, date := range req.Dates {
		config.Dates = append(config.Dates, models.DailyDateEntry{
			DayOfMonth: date.DayOfMonth,
			Month:      date.Month,
			Year:       date.Year,
		})
	}
	for _, slot := range req.Slots {
		config.Slots = append(config.Slots, models.HourlySlot{
			DayOfWeek: slot.DayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	return config
}

// validateScheduleConfig rejects configs whose variant disagrees with the
// declared schedule type or that cannot produce a window.
func validateScheduleConfig(config models.ScheduleConfig, scheduleType models.ScheduleType) error {
	if config.Type != scheduleType {
		return fmt.Errorf("config type %q does not match schedule type %q", config.Type, scheduleType)
	}
	_, err := calculateWindow(config, scheduleType, time.Now())
	return err
}
