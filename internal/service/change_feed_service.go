package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nkc-crm/campaign-sync-api/internal/dto"
	"github.com/nkc-crm/campaign-sync-api/internal/models"
	"github.com/nkc-crm/campaign-sync-api/pkg/jobs"
	"github.com/nkc-crm/campaign-sync-api/pkg/realtime"
)

// Watched change-log tables and their outbound notification names.
const (
	TableCampaigns         = "campaigns"
	TableInteractionLogs   = "campaign_interaction_logs"
	TableCampaignSchedules = "campaign_schedules"

	eventCampaignUpdated       = "campaign_realtime_updated"
	eventInteractionLogUpdated = "campaign_interaction_log_realtime_updated"
	eventScheduleUpdated       = "campaign_schedule_realtime_updated"

	triggeredByDatabase = "database"
)

type changeFeedRepository interface {
	ListUnprocessed(ctx context.Context, afterID int64, tables []string, limit int) ([]models.ChangeLogEntry, error)
	MarkProcessed(ctx context.Context, id int64, at time.Time) error
	MaxProcessedID(ctx context.Context) (int64, error)
	CountUnprocessed(ctx context.Context, tables []string) (int, error)
}

type changeFeedCampaignReader interface {
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
}

type changeFeedScheduleReader interface {
	GetByID(ctx context.Context, id int64) (*models.CampaignSchedule, error)
}

type changeFeedInteractionLogReader interface {
	GetByID(ctx context.Context, id int64) (*models.CampaignInteractionLog, error)
}

// ChangeFeedConfig tunes the dispatcher.
type ChangeFeedConfig struct {
	PollInterval  time.Duration
	BatchSize     int
	DebounceDelay time.Duration
	WatchedTables []string
	Room          string
}

// debounceQueue coalesces outbound events for one entity type. The flush
// timer is armed by the first enqueue and deliberately not reset by later
// ones, which bounds worst-case latency under continuous arrival.
type debounceQueue struct {
	mu        sync.Mutex
	events    []interface{}
	timer     *time.Timer
	eventName string
}

type broadcastJob struct {
	Room  string
	Event string
	Batch models.RealtimeBatch
}

// ChangeFeedService is the polling consumer of the append-only change log.
// A single instance owns the cursor; running two against the same log
// duplicates processing and broadcasts.
type ChangeFeedService struct {
	cfg             ChangeFeedConfig
	changeLog       changeFeedRepository
	campaigns       changeFeedCampaignReader
	schedules       changeFeedScheduleReader
	interactionLogs changeFeedInteractionLogReader
	bus             *ChangeEventBus
	broadcaster     realtime.Broadcaster
	metrics         *MetricsService
	logger          *zap.Logger

	lastProcessedID atomic.Int64
	running         atomic.Bool
	polling         atomic.Bool

	queues         map[string]*debounceQueue
	broadcastQueue *jobs.Queue

	done chan struct{}
	wg   sync.WaitGroup
}

// NewChangeFeedService wires the dispatcher. Start must be called before
// any rows are consumed.
func NewChangeFeedService(
	cfg ChangeFeedConfig,
	changeLog changeFeedRepository,
	campaigns changeFeedCampaignReader,
	schedules changeFeedScheduleReader,
	interactionLogs changeFeedInteractionLogReader,
	bus *ChangeEventBus,
	broadcaster realtime.Broadcaster,
	metrics *MetricsService,
	logger *zap.Logger,
) *ChangeFeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 2 * time.Second
	}
	if len(cfg.WatchedTables) == 0 {
		cfg.WatchedTables = []string{TableCampaigns, TableInteractionLogs, TableCampaignSchedules}
	}

	s := &ChangeFeedService{
		cfg:             cfg,
		changeLog:       changeLog,
		campaigns:       campaigns,
		schedules:       schedules,
		interactionLogs: interactionLogs,
		bus:             bus,
		broadcaster:     broadcaster,
		metrics:         metrics,
		logger:          logger,
		queues: map[string]*debounceQueue{
			TableCampaigns:         {eventName: eventCampaignUpdated},
			TableInteractionLogs:   {eventName: eventInteractionLogUpdated},
			TableCampaignSchedules: {eventName: eventScheduleUpdated},
		},
		done: make(chan struct{}),
	}

	// Broadcasting runs on its own worker so a slow or failing publish can
	// never stall cursor advancement.
	s.broadcastQueue = jobs.NewQueue("realtime-broadcast", s.handleBroadcastJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Logger:     logger,
	})

	return s
}

// Start initializes the cursor from the highest processed row and begins
// the poll loop.
func (s *ChangeFeedService) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}

	cursor, err := s.changeLog.MaxProcessedID(ctx)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("initialize change feed cursor: %w", err)
	}
	s.lastProcessedID.Store(cursor)

	s.broadcastQueue.Start(ctx)

	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Info("change feed dispatcher started",
		zap.Int64("cursor", cursor),
		zap.Duration("poll_interval", s.cfg.PollInterval),
		zap.Strings("watched_tables", s.cfg.WatchedTables),
	)
	return nil
}

// Stop halts polling, drains the debounce queues and stops the broadcast
// worker.
func (s *ChangeFeedService) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.done)
	s.wg.Wait()
	s.FlushAllQueues()
	s.broadcastQueue.Stop()
	s.logger.Info("change feed dispatcher stopped")
}

func (s *ChangeFeedService) pollLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.PollOnce(ctx); err != nil {
				s.logger.Error("change feed poll cycle failed", zap.Error(err))
			}
		}
	}
}

// PollOnce runs a single poll cycle. The re-entrancy guard makes a cycle
// that outlives its ticker interval skip the next tick instead of racing
// on the cursor.
func (s *ChangeFeedService) PollOnce(ctx context.Context) error {
	if !s.polling.CompareAndSwap(false, true) {
		return nil
	}
	defer s.polling.Store(false)

	entries, err := s.changeLog.ListUnprocessed(ctx, s.lastProcessedID.Load(), s.cfg.WatchedTables, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if err := s.processEntry(ctx, entry); err != nil {
			// Stop-at-failure policy: the cursor stays at the last
			// consecutively successful id and the failed row is retried on
			// the next tick. Rows behind it are intentionally not attempted
			// this cycle so ordering is preserved.
			s.metrics.RecordRowFailed()
			s.logger.Error("change handler failed, halting batch",
				zap.Int64("change_id", entry.ID),
				zap.String("table", entry.TableName),
				zap.Error(err),
			)
			break
		}
		if err := s.changeLog.MarkProcessed(ctx, entry.ID, time.Now().UTC()); err != nil {
			s.logger.Error("failed to mark change processed",
				zap.Int64("change_id", entry.ID),
				zap.Error(err),
			)
			break
		}
		s.lastProcessedID.Store(entry.ID)
		s.metrics.RecordRowProcessed()
	}
	return nil
}

func (s *ChangeFeedService) processEntry(ctx context.Context, entry models.ChangeLogEntry) error {
	switch entry.TableName {
	case TableCampaigns:
		return s.handleCampaignChange(ctx, entry)
	case TableInteractionLogs:
		return s.handleInteractionLogChange(ctx, entry)
	case TableCampaignSchedules:
		return s.handleScheduleChange(ctx, entry)
	default:
		// Unwatched tables are filtered at the query; a row landing here
		// means the watch list changed mid-flight. Consume it silently.
		return nil
	}
}

func (s *ChangeFeedService) handleCampaignChange(ctx context.Context, entry models.ChangeLogEntry) error {
	campaign, err := s.campaigns.GetByID(ctx, entry.RecordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("reload campaign %d: %w", entry.RecordID, err)
	}

	changes := buildChangeSet(entry)
	s.publishDomainEvent(entry, changes)
	s.reconcileCampaign(campaign, changes)

	s.enqueue(TableCampaigns, models.CampaignRealtimeEvent{
		RealtimeEventBase: eventBase(entry, changes, "campaign_updated"),
		CampaignID:        campaign.ID,
		CampaignName:      campaign.Name,
		CampaignStatus:    campaign.Status,
		DepartmentID:      campaign.DepartmentID,
	})
	return nil
}

func (s *ChangeFeedService) handleInteractionLogChange(ctx context.Context, entry models.ChangeLogEntry) error {
	log, err := s.interactionLogs.GetByID(ctx, entry.RecordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("reload interaction log %d: %w", entry.RecordID, err)
	}

	changes := buildChangeSet(entry)
	s.publishDomainEvent(entry, changes)

	s.enqueue(TableInteractionLogs, models.InteractionLogRealtimeEvent{
		RealtimeEventBase: eventBase(entry, changes, "interaction_log_updated"),
		CampaignID:        log.CampaignID,
		CustomerID:        log.CustomerID,
		InteractionStatus: log.Status,
	})
	return nil
}

func (s *ChangeFeedService) handleScheduleChange(ctx context.Context, entry models.ChangeLogEntry) error {
	schedule, err := s.schedules.GetByID(ctx, entry.RecordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("reload campaign schedule %d: %w", entry.RecordID, err)
	}

	changes := buildChangeSet(entry)
	s.publishDomainEvent(entry, changes)

	s.enqueue(TableCampaignSchedules, models.CampaignScheduleRealtimeEvent{
		RealtimeEventBase: eventBase(entry, changes, "schedule_updated"),
		CampaignID:        schedule.CampaignID,
		IsActive:          schedule.IsActive,
		StartDate:         schedule.StartDate,
		EndDate:           schedule.EndDate,
	})
	return nil
}

func (s *ChangeFeedService) publishDomainEvent(entry models.ChangeLogEntry, changes models.ChangeSet) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(models.DatabaseChangeEvent{
		ID:          uuid.NewString(),
		Entity:      entry.TableName,
		Action:      entry.Action,
		EntityID:    entry.RecordID,
		Changes:     changes,
		Timestamp:   time.Now().UTC(),
		TriggeredBy: triggeredByDatabase,
	})
}

// reconcileCampaign is the entity-specific side-reconciliation hook. Status
// transitions to paused/cancelled may eventually pause related department
// schedules; nothing is required here yet.
func (s *ChangeFeedService) reconcileCampaign(campaign *models.Campaign, changes models.ChangeSet) {
	if _, ok := changes["status"]; !ok {
		return
	}
	s.logger.Debug("campaign status changed",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("status", string(campaign.Status)),
	)
}

func (s *ChangeFeedService) enqueue(table string, event interface{}) {
	queue, ok := s.queues[table]
	if !ok {
		return
	}
	queue.mu.Lock()
	defer queue.mu.Unlock()
	queue.events = append(queue.events, event)
	if queue.timer == nil {
		queue.timer = time.AfterFunc(s.cfg.DebounceDelay, func() {
			s.flushQueue(table)
		})
	}
}

func (s *ChangeFeedService) flushQueue(table string) {
	queue, ok := s.queues[table]
	if !ok {
		return
	}

	queue.mu.Lock()
	events := queue.events
	queue.events = nil
	if queue.timer != nil {
		queue.timer.Stop()
		queue.timer = nil
	}
	eventName := queue.eventName
	queue.mu.Unlock()

	if len(events) == 0 {
		return
	}

	s.metrics.RecordQueueFlush(table)
	job := jobs.Job{
		ID:   uuid.NewString(),
		Type: eventName,
		Payload: broadcastJob{
			Room:  s.cfg.Room,
			Event: eventName,
			Batch: models.RealtimeBatch{Events: events, RefreshRequest: true},
		},
	}
	if err := s.broadcastQueue.Enqueue(job); err != nil {
		s.metrics.RecordBroadcastError()
		s.logger.Error("failed to enqueue broadcast", zap.String("event", eventName), zap.Error(err))
	}
}

func (s *ChangeFeedService) handleBroadcastJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(broadcastJob)
	if !ok {
		return fmt.Errorf("unexpected broadcast payload %T", job.Payload)
	}
	if err := s.broadcaster.EmitToRoom(ctx, payload.Room, payload.Event, payload.Batch); err != nil {
		s.metrics.RecordBroadcastError()
		return err
	}
	return nil
}

// FlushAllQueues force-flushes every debounce queue, for shutdown and
// operational drains.
func (s *ChangeFeedService) FlushAllQueues() {
	for table := range s.queues {
		s.flushQueue(table)
	}
}

// ForceProcessAll resets the cursor to zero and runs one poll cycle.
// Replays are possible; downstream consumers treat notifications as
// refresh hints, so replays are tolerated.
func (s *ChangeFeedService) ForceProcessAll(ctx context.Context) error {
	s.lastProcessedID.Store(0)
	return s.PollOnce(ctx)
}

// Status reports the dispatcher introspection snapshot.
func (s *ChangeFeedService) Status(ctx context.Context) (dto.DispatcherStatus, error) {
	unprocessed, err := s.changeLog.CountUnprocessed(ctx, s.cfg.WatchedTables)
	if err != nil {
		return dto.DispatcherStatus{}, err
	}
	return dto.DispatcherStatus{
		IsRunning:        s.running.Load(),
		LastProcessedID:  s.lastProcessedID.Load(),
		UnprocessedCount: unprocessed,
		QueueSizes: map[string]int{
			"campaign":        s.queueSize(TableCampaigns),
			"interaction_log": s.queueSize(TableInteractionLogs),
			"schedule":        s.queueSize(TableCampaignSchedules),
			"broadcast":       s.broadcastQueue.Pending(),
		},
	}, nil
}

func (s *ChangeFeedService) queueSize(table string) int {
	queue, ok := s.queues[table]
	if !ok {
		return 0
	}
	queue.mu.Lock()
	defer queue.mu.Unlock()
	return len(queue.events)
}

func buildChangeSet(entry models.ChangeLogEntry) models.ChangeSet {
	changes := models.ChangeSet{}
	for _, field := range entry.ChangedFields {
		change := models.FieldChange{}
		if entry.OldValues != nil {
			change.Old = entry.OldValues[field]
		}
		if entry.NewValues != nil {
			change.New = entry.NewValues[field]
		}
		changes[field] = change
	}
	return changes
}

func eventBase(entry models.ChangeLogEntry, changes models.ChangeSet, updatedType string) models.RealtimeEventBase {
	eventType := updatedType
	if entry.Action == models.ChangeActionInsert {
		eventType = "insert"
	}
	return models.RealtimeEventBase{
		Type:           eventType,
		EntityID:       entry.RecordID,
		Changes:        changes,
		Timestamp:      time.Now().UTC(),
		TriggeredBy:    triggeredByDatabase,
		RefreshRequest: true,
	}
}
