package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ScheduleStorage implements the ScheduleStorage interface for Badger
type ScheduleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewScheduleStorage creates a new ScheduleStorage instance
func NewScheduleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ScheduleStorage {
	return &ScheduleStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ScheduleStorage) SaveSchedule(ctx context.Context, schedule *models.Schedule) error {
	if schedule == nil {
		return fmt.Errorf("schedule cannot be nil")
	}
	if schedule.ID == "" {
		return fmt.Errorf("schedule ID is required")
	}

	if err := s.db.Store().Upsert(schedule.ID, schedule); err != nil {
		return fmt.Errorf("failed to save schedule: %w", err)
	}
	return nil
}

func (s *ScheduleStorage) GetSchedule(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.db.Store().Get(id, &schedule); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrScheduleNotFound, id)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (s *ScheduleStorage) ListSchedules(ctx context.Context) ([]*models.Schedule, error) {
	var schedules []models.Schedule
	if err := s.db.Store().Find(&schedules, badgerhold.Where("ID").Ne("").SortBy("CreatedAt")); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	result := make([]*models.Schedule, len(schedules))
	for i := range schedules {
		result[i] = &schedules[i]
	}
	return result, nil
}

func (s *ScheduleStorage) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Schedule{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", interfaces.ErrScheduleNotFound, id)
		}
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	return nil
}
