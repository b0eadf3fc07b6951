package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

type mockStatusScheduleRepo struct {
	schedules     []models.DepartmentSchedule
	stats         models.ScheduleStatusStats
	listErr       error
	updateErr     map[int64]error
	statusUpdates map[int64]models.ScheduleStatus
	lastStatuses  []models.ScheduleStatus
	listAllCalls  int
}

func (m *mockStatusScheduleRepo) ListByStatuses(ctx context.Context, statuses []models.ScheduleStatus) ([]models.DepartmentSchedule, error) {
	m.lastStatuses = statuses
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.DepartmentSchedule
	for _, s := range m.schedules {
		for _, status := range statuses {
			if s.Status == status {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (m *mockStatusScheduleRepo) ListAll(ctx context.Context) ([]models.DepartmentSchedule, error) {
	m.listAllCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.schedules, nil
}

func (m *mockStatusScheduleRepo) UpdateStatus(ctx context.Context, id int64, status models.ScheduleStatus) error {
	if err, ok := m.updateErr[id]; ok {
		return err
	}
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[int64]models.ScheduleStatus)
	}
	m.statusUpdates[id] = status
	return nil
}

func (m *mockStatusScheduleRepo) StatusStats(ctx context.Context) (models.ScheduleStatusStats, error) {
	return m.stats, nil
}

type mockStatusCampaignRepo struct {
	campaigns     []models.Campaign
	listErr       error
	statusUpdates map[int64]models.CampaignStatus
	updateErr     map[int64]error
}

func (m *mockStatusCampaignRepo) ListByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Campaign
	for _, c := range m.campaigns {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockStatusCampaignRepo) UpdateStatus(ctx context.Context, id int64, status models.CampaignStatus) error {
	if err, ok := m.updateErr[id]; ok {
		return err
	}
	if m.statusUpdates == nil {
		m.statusUpdates = make(map[int64]models.CampaignStatus)
	}
	m.statusUpdates[id] = status
	return nil
}

type mockCampaignScheduleRepo struct {
	byCampaign map[int64]*models.CampaignSchedule
	err        map[int64]error
}

func (m *mockCampaignScheduleRepo) GetByCampaignID(ctx context.Context, campaignID int64) (*models.CampaignSchedule, error) {
	if err, ok := m.err[campaignID]; ok {
		return nil, err
	}
	schedule, ok := m.byCampaign[campaignID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return schedule, nil
}

func newStatusEngine(schedules *mockStatusScheduleRepo, campaigns *mockStatusCampaignRepo, campaignSchedules *mockCampaignScheduleRepo, now time.Time) *ScheduleStatusService {
	svc := NewScheduleStatusService(schedules, campaigns, campaignSchedules, nil, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func hourlyConfig(slots ...models.HourlySlot) models.ScheduleConfig {
	return models.ScheduleConfig{Type: models.ScheduleTypeHourlySlots, Slots: slots}
}

func TestReconcileStatusesActivatesAndExpires(t *testing.T) {
	// Wednesday 2025-06-11 10:30 UTC.
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	repo := &mockStatusScheduleRepo{schedules: []models.DepartmentSchedule{
		{
			ID: 1, Name: "in window", Status: models.ScheduleStatusExpired,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00"}, models.HourlySlot{DayOfWeek: 7, StartTime: "08:00", EndTime: "18:00"}),
		},
		{
			ID: 2, Name: "window closed", Status: models.ScheduleStatusActive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00"}),
		},
		{
			ID: 3, Name: "already correct", Status: models.ScheduleStatusActive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00"}, models.HourlySlot{DayOfWeek: 7, StartTime: "08:00", EndTime: "18:00"}),
		},
	}}

	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	result, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, models.ScheduleStatusActive, repo.statusUpdates[1])
	assert.Equal(t, models.ScheduleStatusExpired, repo.statusUpdates[2])
	_, touched := repo.statusUpdates[3]
	assert.False(t, touched)
}

func TestReconcileStatusesIsIdempotent(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	repo := &mockStatusScheduleRepo{schedules: []models.DepartmentSchedule{
		{
			ID: 1, Status: models.ScheduleStatusActive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "00:00", EndTime: "23:59"}, models.HourlySlot{DayOfWeek: 7, StartTime: "00:00", EndTime: "23:59"}),
		},
	}}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	first, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)
	second, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, 0, second.Updated)
	assert.Empty(t, repo.statusUpdates)
}

func TestReconcileStatusesSkipsInactive(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	repo := &mockStatusScheduleRepo{schedules: []models.DepartmentSchedule{
		{
			ID: 1, Status: models.ScheduleStatusInactive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "00:00", EndTime: "23:59"}, models.HourlySlot{DayOfWeek: 7, StartTime: "00:00", EndTime: "23:59"}),
		},
	}}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	result, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)

	// The timer run never even fetches inactive rows.
	assert.Equal(t, []models.ScheduleStatus{models.ScheduleStatusActive, models.ScheduleStatusExpired}, repo.lastStatuses)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, repo.statusUpdates)
}

func TestReconcileAllStatusesKeepsInactiveSticky(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	repo := &mockStatusScheduleRepo{schedules: []models.DepartmentSchedule{
		{
			ID: 1, Status: models.ScheduleStatusInactive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "00:00", EndTime: "23:59"}, models.HourlySlot{DayOfWeek: 7, StartTime: "00:00", EndTime: "23:59"}),
		},
		{
			ID: 2, Status: models.ScheduleStatusExpired,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: hourlyConfig(models.HourlySlot{DayOfWeek: 2, StartTime: "00:00", EndTime: "23:59"}, models.HourlySlot{DayOfWeek: 7, StartTime: "00:00", EndTime: "23:59"}),
		},
	}}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	result, err := svc.ReconcileAllStatuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listAllCalls)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Updated)
	_, touched := repo.statusUpdates[1]
	assert.False(t, touched)
	assert.Equal(t, models.ScheduleStatusActive, repo.statusUpdates[2])
}

func TestReconcileLeavesBrokenConfigUntouched(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	repo := &mockStatusScheduleRepo{schedules: []models.DepartmentSchedule{
		{
			ID: 1, Status: models.ScheduleStatusActive,
			ScheduleType:   models.ScheduleTypeHourlySlots,
			ScheduleConfig: models.ScheduleConfig{Type: models.ScheduleTypeHourlySlots},
		},
	}}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	result, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, repo.statusUpdates)
}

func TestReconcileContinuesPastUpdateFailure(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)
	window := hourlyConfig(
		models.HourlySlot{DayOfWeek: 2, StartTime: "00:00", EndTime: "23:59"},
		models.HourlySlot{DayOfWeek: 7, StartTime: "00:00", EndTime: "23:59"},
	)

	repo := &mockStatusScheduleRepo{
		schedules: []models.DepartmentSchedule{
			{ID: 1, Status: models.ScheduleStatusExpired, ScheduleType: models.ScheduleTypeHourlySlots, ScheduleConfig: window},
			{ID: 2, Status: models.ScheduleStatusExpired, ScheduleType: models.ScheduleTypeHourlySlots, ScheduleConfig: window},
		},
		updateErr: map[int64]error{1: errors.New("write failed")},
	}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, now)

	result, err := svc.ReconcileStatuses(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, models.ScheduleStatusActive, repo.statusUpdates[2])
}

func TestRepairOrphanedCampaigns(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)
	start := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	campaigns := &mockStatusCampaignRepo{campaigns: []models.Campaign{
		{ID: 1, Name: "no schedule row", Status: models.CampaignStatusScheduled},
		{ID: 2, Name: "schedule without dates", Status: models.CampaignStatusScheduled},
		{ID: 3, Name: "anchored", Status: models.CampaignStatusScheduled},
		{ID: 4, Name: "running", Status: models.CampaignStatusRunning},
	}}
	campaignSchedules := &mockCampaignScheduleRepo{byCampaign: map[int64]*models.CampaignSchedule{
		2: {ID: 20, CampaignID: 2},
		3: {ID: 30, CampaignID: 3, StartDate: &start},
	}}

	svc := newStatusEngine(&mockStatusScheduleRepo{}, campaigns, campaignSchedules, now)

	result, err := svc.RepairOrphanedCampaigns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Reset)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, models.CampaignStatusDraft, campaigns.statusUpdates[1])
	assert.Equal(t, models.CampaignStatusDraft, campaigns.statusUpdates[2])
	_, touched := campaigns.statusUpdates[3]
	assert.False(t, touched)
	_, touched = campaigns.statusUpdates[4]
	assert.False(t, touched)
}

func TestRepairOrphanedCampaignsSkipsLookupFailures(t *testing.T) {
	now := time.Date(2025, time.June, 11, 10, 30, 0, 0, time.UTC)

	campaigns := &mockStatusCampaignRepo{campaigns: []models.Campaign{
		{ID: 1, Status: models.CampaignStatusScheduled},
		{ID: 2, Status: models.CampaignStatusScheduled},
	}}
	campaignSchedules := &mockCampaignScheduleRepo{
		err: map[int64]error{1: errors.New("db down")},
	}

	svc := newStatusEngine(&mockStatusScheduleRepo{}, campaigns, campaignSchedules, now)

	result, err := svc.RepairOrphanedCampaigns(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Reset)
	_, touched := campaigns.statusUpdates[1]
	assert.False(t, touched)
	assert.Equal(t, models.CampaignStatusDraft, campaigns.statusUpdates[2])
}

func TestStatusStatsPassesThrough(t *testing.T) {
	repo := &mockStatusScheduleRepo{stats: models.ScheduleStatusStats{Active: 3, Inactive: 1, Expired: 2, Total: 6}}
	svc := newStatusEngine(repo, &mockStatusCampaignRepo{}, &mockCampaignScheduleRepo{}, time.Now())

	stats, err := svc.StatusStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
}
