package badger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// logSequence keeps log keys unique when entries land in the same nanosecond
var logSequence uint64

// storedLogEntry wraps a log line with the owning job ID for field queries
type storedLogEntry struct {
	JobID     string `badgerholdIndex:"JobID"`
	Timestamp string
	Level     string
	Message   string
	Nanos     int64
}

// JobStorage implements the JobStorage interface for Badger
type JobStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewJobStorage creates a new JobStorage instance
func NewJobStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

func (s *JobStorage) SaveJob(ctx context.Context, job *models.ScrapeJob) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if job.ID == "" {
		return fmt.Errorf("job ID is required")
	}

	if err := s.db.Store().Upsert(job.ID, job); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.ScrapeJob, error) {
	var job models.ScrapeJob
	if err := s.db.Store().Get(jobID, &job); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", interfaces.ErrJobNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

func (s *JobStorage) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.ScrapeJob, error) {
	query := badgerhold.Where("ID").Ne("")

	if opts != nil {
		if opts.Status != "" {
			query = query.And("Status").Eq(opts.Status)
		}
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}
	query = query.SortBy("CreatedAt").Reverse()

	var jobs []models.ScrapeJob
	if err := s.db.Store().Find(&jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := make([]*models.ScrapeJob, len(jobs))
	for i := range jobs {
		result[i] = &jobs[i]
	}
	return result, nil
}

func (s *JobStorage) DeleteJob(ctx context.Context, jobID string) error {
	if err := s.db.Store().Delete(jobID, &models.ScrapeJob{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: %s", interfaces.ErrJobNotFound, jobID)
		}
		return fmt.Errorf("failed to delete job: %w", err)
	}

	// Drop the job's log entries alongside the record
	if err := s.db.Store().DeleteMatching(&storedLogEntry{}, badgerhold.Where("JobID").Eq(jobID)); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Failed to delete job logs")
	}
	return nil
}

func (s *JobStorage) AppendLog(ctx context.Context, jobID string, entry models.JobLogEntry) error {
	// Timestamp plus an atomic sequence keeps keys unique under concurrency
	seq := atomic.AddUint64(&logSequence, 1)
	now := time.Now()
	key := fmt.Sprintf("%s_%d_%d", jobID, now.UnixNano(), seq)

	stored := &storedLogEntry{
		JobID:     jobID,
		Timestamp: entry.Timestamp,
		Level:     entry.Level,
		Message:   entry.Message,
		Nanos:     now.UnixNano(),
	}
	if err := s.db.Store().Insert(key, stored); err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

func (s *JobStorage) GetLogs(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error) {
	query := badgerhold.Where("JobID").Eq(jobID).SortBy("Nanos")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var stored []storedLogEntry
	if err := s.db.Store().Find(&stored, query); err != nil {
		return nil, fmt.Errorf("failed to get logs: %w", err)
	}

	logs := make([]models.JobLogEntry, len(stored))
	for i, e := range stored {
		logs[i] = models.JobLogEntry{
			Timestamp: e.Timestamp,
			Level:     e.Level,
			Message:   e.Message,
		}
	}
	return logs, nil
}
