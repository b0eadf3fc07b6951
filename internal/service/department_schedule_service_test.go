package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkc-crm/campaign-sync-api/internal/dto"
	"github.com/nkc-crm/campaign-sync-api/internal/models"
	appErrors "github.com/nkc-crm/campaign-sync-api/pkg/errors"
)

type mockScheduleRepo struct {
	byID       map[int64]*models.DepartmentSchedule
	listResult []models.DepartmentSchedule
	listTotal  int
	lastFilter models.DepartmentScheduleFilter
	created    *models.DepartmentSchedule
	updated    *models.DepartmentSchedule
	deletedID  int64
	createErr  error
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.DepartmentScheduleFilter) ([]models.DepartmentSchedule, int, error) {
	m.lastFilter = filter
	return m.listResult, m.listTotal, nil
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, id int64) (*models.DepartmentSchedule, error) {
	schedule, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *schedule
	return &clone, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.DepartmentSchedule) error {
	if m.createErr != nil {
		return m.createErr
	}
	schedule.ID = 42
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.DepartmentSchedule) error {
	m.updated = schedule
	return nil
}

func (m *mockScheduleRepo) SoftDelete(ctx context.Context, id int64) error {
	m.deletedID = id
	return nil
}

func (m *mockScheduleRepo) ListByStatuses(ctx context.Context, statuses []models.ScheduleStatus) ([]models.DepartmentSchedule, error) {
	return m.listResult, nil
}

func validCreateRequest() dto.CreateDepartmentScheduleRequest {
	return dto.CreateDepartmentScheduleRequest{
		Name:         "weekday mornings",
		ScheduleType: "hourly_slots",
		Config: dto.ScheduleConfigRequest{
			Type: "hourly_slots",
			Slots: []dto.ScheduleSlotRequest{
				{DayOfWeek: 2, StartTime: "08:00", EndTime: "11:30"},
			},
		},
		DepartmentID: 3,
		CreatedBy:    9,
	}
}

func TestCreateScheduleStartsActive(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	schedule, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(42), schedule.ID)
	assert.Equal(t, models.ScheduleStatusActive, schedule.Status)
	assert.Equal(t, models.ScheduleTypeHourlySlots, schedule.ScheduleType)
	require.NotNil(t, repo.created)
	assert.Len(t, repo.created.ScheduleConfig.Slots, 1)
}

func TestCreateScheduleRejectsMismatchedConfigType(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	req := validCreateRequest()
	req.Config.Type = "daily_dates"
	req.Config.Slots = nil
	req.Config.Dates = []dto.ScheduleDateRequest{{DayOfMonth: 5}}

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidScheduleConfig.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestCreateScheduleRejectsUncomputableConfig(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	req := validCreateRequest()
	req.Config.Slots = nil

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidScheduleConfig.Code, appErrors.FromError(err).Code)
}

func TestCreateScheduleRejectsMissingFields(t *testing.T) {
	svc := NewDepartmentScheduleService(&mockScheduleRepo{}, nil, zap.NewNop())

	req := validCreateRequest()
	req.Name = ""

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetScheduleNotFound(t *testing.T) {
	svc := NewDepartmentScheduleService(&mockScheduleRepo{}, nil, zap.NewNop())

	_, err := svc.Get(context.Background(), 123)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListSchedulesAppliesPaginationDefaults(t *testing.T) {
	repo := &mockScheduleRepo{listTotal: 37}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), dto.ListDepartmentSchedulesRequest{Name: "push"})
	require.NoError(t, err)

	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 37, pagination.TotalCount)
	assert.Equal(t, "push", repo.lastFilter.Name)
}

func TestUpdateScheduleTogglesStatus(t *testing.T) {
	existing := &models.DepartmentSchedule{
		ID:           7,
		Name:         "weekday mornings",
		ScheduleType: models.ScheduleTypeHourlySlots,
		Status:       models.ScheduleStatusActive,
		ScheduleConfig: models.ScheduleConfig{
			Type:  models.ScheduleTypeHourlySlots,
			Slots: []models.HourlySlot{{DayOfWeek: 2, StartTime: "08:00", EndTime: "11:30"}},
		},
	}
	repo := &mockScheduleRepo{byID: map[int64]*models.DepartmentSchedule{7: existing}}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	status := "inactive"
	updated, err := svc.Update(context.Background(), 7, dto.UpdateDepartmentScheduleRequest{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.ScheduleStatusInactive, updated.Status)
	require.NotNil(t, repo.updated)
	assert.Equal(t, models.ScheduleStatusInactive, repo.updated.Status)
}

func TestUpdateScheduleRejectsExpiredStatus(t *testing.T) {
	existing := &models.DepartmentSchedule{
		ID:           7,
		ScheduleType: models.ScheduleTypeHourlySlots,
		Status:       models.ScheduleStatusActive,
	}
	repo := &mockScheduleRepo{byID: map[int64]*models.DepartmentSchedule{7: existing}}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	status := "expired"
	_, err := svc.Update(context.Background(), 7, dto.UpdateDepartmentScheduleRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateScheduleRevalidatesConfig(t *testing.T) {
	existing := &models.DepartmentSchedule{
		ID:           7,
		ScheduleType: models.ScheduleTypeHourlySlots,
		Status:       models.ScheduleStatusActive,
		ScheduleConfig: models.ScheduleConfig{
			Type:  models.ScheduleTypeHourlySlots,
			Slots: []models.HourlySlot{{DayOfWeek: 2, StartTime: "08:00", EndTime: "11:30"}},
		},
	}
	repo := &mockScheduleRepo{byID: map[int64]*models.DepartmentSchedule{7: existing}}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	bad := dto.ScheduleConfigRequest{Type: "hourly_slots"}
	_, err := svc.Update(context.Background(), 7, dto.UpdateDepartmentScheduleRequest{Config: &bad})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidScheduleConfig.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.updated)
}

func TestDeleteScheduleSoftDeletes(t *testing.T) {
	existing := &models.DepartmentSchedule{ID: 7, ScheduleType: models.ScheduleTypeHourlySlots}
	repo := &mockScheduleRepo{byID: map[int64]*models.DepartmentSchedule{7: existing}}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), 7))
	assert.Equal(t, int64(7), repo.deletedID)
}

func TestDeleteScheduleNotFound(t *testing.T) {
	svc := NewDepartmentScheduleService(&mockScheduleRepo{}, nil, zap.NewNop())

	err := svc.Delete(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateScheduleWrapsRepositoryFailure(t *testing.T) {
	repo := &mockScheduleRepo{createErr: errors.New("insert failed")}
	svc := NewDepartmentScheduleService(repo, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
