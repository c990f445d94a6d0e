package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Service runs stored schedules through a cron runner. Each firing starts a
// scrape with the stored request template; an already-running session makes
// the firing a no-op.
type Service struct {
	scraper  interfaces.ScraperService
	storage  interfaces.ScheduleStorage
	logger   arbor.ILogger
	cron     *cron.Cron
	mu       sync.Mutex
	entryIDs map[string]cron.EntryID
	started  bool
}

// NewService creates the scheduler service
func NewService(scraper interfaces.ScraperService, storage interfaces.ScheduleStorage, logger arbor.ILogger) *Service {
	return &Service{
		scraper:  scraper,
		storage:  storage,
		logger:   logger,
		cron:     cron.New(),
		entryIDs: make(map[string]cron.EntryID),
	}
}

// Start loads stored schedules and begins firing them
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}

	schedules, err := s.storage.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}

	for _, schedule := range schedules {
		if !schedule.Enabled {
			continue
		}
		if err := s.register(schedule); err != nil {
			s.logger.Warn().Err(err).Str("schedule_id", schedule.ID).Msg("Skipping invalid schedule")
		}
	}

	s.cron.Start()
	s.started = true
	s.logger.Info().Int("schedules", len(s.entryIDs)).Msg("Scheduler started")
	return nil
}

// Stop halts the cron runner, waiting for an in-flight firing to return
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.started = false
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// AddSchedule validates, persists, and registers a schedule
func (s *Service) AddSchedule(ctx context.Context, schedule *models.Schedule) error {
	if _, err := cron.ParseStandard(schedule.Spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", schedule.Spec, err)
	}
	if schedule.ID == "" {
		schedule.ID = common.NewScheduleID()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now()
	}

	if err := s.storage.SaveSchedule(ctx, schedule); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if schedule.Enabled {
		return s.register(schedule)
	}
	return nil
}

// RemoveSchedule deletes a schedule and unregisters its cron entry
func (s *Service) RemoveSchedule(ctx context.Context, id string) error {
	if err := s.storage.DeleteSchedule(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entryIDs[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entryIDs, id)
	}
	return nil
}

// GetSchedule returns one stored schedule
func (s *Service) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	return s.storage.GetSchedule(ctx, id)
}

// ListSchedules returns all stored schedules
func (s *Service) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	return s.storage.ListSchedules(ctx)
}

// register adds the schedule to the cron runner. Caller holds the lock.
func (s *Service) register(schedule *models.Schedule) error {
	id := schedule.ID
	entryID, err := s.cron.AddFunc(schedule.Spec, func() {
		s.fire(id)
	})
	if err != nil {
		return fmt.Errorf("failed to register schedule %s: %w", id, err)
	}
	s.entryIDs[id] = entryID
	return nil
}

// fire starts a scrape from the stored request template
func (s *Service) fire(scheduleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schedule, err := s.storage.GetSchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule_id", scheduleID).Msg("Schedule vanished before firing")
		return
	}

	req := schedule.Request
	jobID, err := s.scraper.StartScrape(ctx, &req)
	if err != nil {
		s.logger.Warn().Err(err).Str("schedule_id", scheduleID).Msg("Scheduled scrape not started")
		return
	}

	schedule.LastRunAt = time.Now()
	schedule.LastJobID = jobID
	if err := s.storage.SaveSchedule(ctx, schedule); err != nil {
		s.logger.Warn().Err(err).Str("schedule_id", scheduleID).Msg("Failed to record schedule run")
	}

	s.logger.Info().
		Str("schedule_id", scheduleID).
		Str("job_id", jobID).
		Msg("Scheduled scrape started")
}

var _ interfaces.SchedulerService = (*Service)(nil)
