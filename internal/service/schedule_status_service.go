package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nkc-crm/campaign-sync-api/internal/dto"
	"github.com/nkc-crm/campaign-sync-api/internal/models"
)

type statusEngineScheduleRepository interface {
	ListByStatuses(ctx context.Context, statuses []models.ScheduleStatus) ([]models.DepartmentSchedule, error)
	ListAll(ctx context.Context) ([]models.DepartmentSchedule, error)
	UpdateStatus(ctx context.Context, id int64, status models.ScheduleStatus) error
	StatusStats(ctx context.Context) (models.ScheduleStatusStats, error)
}

type statusEngineCampaignRepository interface {
	ListByStatus(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error)
	UpdateStatus(ctx context.Context, id int64, status models.CampaignStatus) error
}

type statusEngineCampaignScheduleRepository interface {
	GetByCampaignID(ctx context.Context, campaignID int64) (*models.CampaignSchedule, error)
}

// ScheduleStatusService reconciles schedule lifecycle statuses against
// wall-clock time and repairs orphaned scheduled campaigns. Both jobs are
// idempotent: a second run with no clock movement performs zero writes.
type ScheduleStatusService struct {
	schedules         statusEngineScheduleRepository
	campaigns         statusEngineCampaignRepository
	campaignSchedules statusEngineCampaignScheduleRepository
	metrics           *MetricsService
	logger            *zap.Logger
	now               func() time.Time
}

// NewScheduleStatusService constructs the engine.
func NewScheduleStatusService(
	schedules statusEngineScheduleRepository,
	campaigns statusEngineCampaignRepository,
	campaignSchedules statusEngineCampaignScheduleRepository,
	metrics *MetricsService,
	logger *zap.Logger,
) *ScheduleStatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleStatusService{
		schedules:         schedules,
		campaigns:         campaigns,
		campaignSchedules: campaignSchedules,
		metrics:           metrics,
		logger:            logger,
		now:               time.Now,
	}
}

// ReconcileStatuses is the timer-driven run. It prefilters to schedules in
// active or expired state: inactive is a manual pause that the engine must
// never override, so those rows are not even scanned here.
func (s *ScheduleStatusService) ReconcileStatuses(ctx context.Context) (dto.ReconcileResult, error) {
	started := s.now()
	schedules, err := s.schedules.ListByStatuses(ctx, []models.ScheduleStatus{
		models.ScheduleStatusActive,
		models.ScheduleStatusExpired,
	})
	if err != nil {
		return dto.ReconcileResult{}, err
	}
	result := s.reconcile(ctx, schedules)
	s.observeJob("reconcile", started)
	return result, nil
}

// ReconcileAllStatuses is the manual trigger: it scans every live schedule
// regardless of stored status, for operational repair and backfill. The
// sticky-inactive rule still applies per record.
func (s *ScheduleStatusService) ReconcileAllStatuses(ctx context.Context) (dto.ReconcileResult, error) {
	started := s.now()
	schedules, err := s.schedules.ListAll(ctx)
	if err != nil {
		return dto.ReconcileResult{}, err
	}
	result := s.reconcile(ctx, schedules)
	s.observeJob("reconcile_all", started)
	s.logger.Info("manual status reconciliation completed",
		zap.Int("updated", result.Updated),
		zap.Int("total", result.Total),
	)
	return result, nil
}

func (s *ScheduleStatusService) reconcile(ctx context.Context, schedules []models.DepartmentSchedule) dto.ReconcileResult {
	now := s.now()
	updated := 0
	for _, schedule := range schedules {
		target, ok := s.targetStatus(schedule, now)
		if !ok || target == schedule.Status {
			continue
		}
		if err := s.schedules.UpdateStatus(ctx, schedule.ID, target); err != nil {
			s.logger.Error("failed to update schedule status",
				zap.Int64("schedule_id", schedule.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("schedule status updated",
			zap.Int64("schedule_id", schedule.ID),
			zap.String("name", schedule.Name),
			zap.String("from", string(schedule.Status)),
			zap.String("to", string(target)),
		)
		updated++
	}
	return dto.ReconcileResult{Updated: updated, Total: len(schedules)}
}

// targetStatus computes the desired status for one schedule. The second
// return is false when the record must be left untouched (sticky inactive
// or a config that cannot be evaluated).
func (s *ScheduleStatusService) targetStatus(schedule models.DepartmentSchedule, now time.Time) (models.ScheduleStatus, bool) {
	if schedule.Status == models.ScheduleStatusInactive {
		return "", false
	}

	if IsWithinSchedule(schedule.ScheduleConfig, schedule.ScheduleType, now) {
		return models.ScheduleStatusActive, true
	}

	window, err := calculateWindow(schedule.ScheduleConfig, schedule.ScheduleType, now)
	if err != nil {
		s.logger.Warn("cannot evaluate schedule config, leaving status unchanged",
			zap.Int64("schedule_id", schedule.ID),
			zap.Error(err),
		)
		return "", false
	}
	if now.After(window.End) {
		return models.ScheduleStatusExpired, true
	}
	// Window has not started yet: no speculation, keep the stored status.
	return schedule.Status, true
}

// RepairOrphanedCampaigns demotes Scheduled campaigns that have no time
// anchor (no campaign schedule row, or both dates null) back to Draft.
func (s *ScheduleStatusService) RepairOrphanedCampaigns(ctx context.Context) (dto.OrphanRepairResult, error) {
	started := s.now()
	campaigns, err := s.campaigns.ListByStatus(ctx, models.CampaignStatusScheduled)
	if err != nil {
		return dto.OrphanRepairResult{}, err
	}

	reset := 0
	for _, campaign := range campaigns {
		orphaned, err := s.isOrphaned(ctx, campaign.ID)
		if err != nil {
			s.logger.Error("failed to inspect campaign schedule",
				zap.Int64("campaign_id", campaign.ID),
				zap.Error(err),
			)
			continue
		}
		if !orphaned {
			continue
		}
		if err := s.campaigns.UpdateStatus(ctx, campaign.ID, models.CampaignStatusDraft); err != nil {
			s.logger.Error("failed to demote campaign",
				zap.Int64("campaign_id", campaign.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("scheduled campaign without time anchor demoted to draft",
			zap.Int64("campaign_id", campaign.ID),
			zap.String("name", campaign.Name),
		)
		reset++
	}
	s.observeJob("orphan_repair", started)
	return dto.OrphanRepairResult{Reset: reset, Total: len(campaigns)}, nil
}

func (s *ScheduleStatusService) isOrphaned(ctx context.Context, campaignID int64) (bool, error) {
	schedule, err := s.campaignSchedules.GetByCampaignID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		return false, err
	}
	return schedule.StartDate == nil && schedule.EndDate == nil, nil
}

// StatusStats reports the current status breakdown across live schedules.
func (s *ScheduleStatusService) StatusStats(ctx context.Context) (models.ScheduleStatusStats, error) {
	return s.schedules.StatusStats(ctx)
}

func (s *ScheduleStatusService) observeJob(job string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveJobRun(job, s.now().Sub(started))
	}
}
