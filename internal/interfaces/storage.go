package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// JobListOptions filters and pages job listings
type JobListOptions struct {
	Status models.JobStatus
	Limit  int
	Offset int
}

// JobStorage - interface for local scrape job persistence
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.ScrapeJob) error
	GetJob(ctx context.Context, jobID string) (*models.ScrapeJob, error)
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.ScrapeJob, error)
	DeleteJob(ctx context.Context, jobID string) error

	// Log operations
	AppendLog(ctx context.Context, jobID string, entry models.JobLogEntry) error
	GetLogs(ctx context.Context, jobID string, limit int) ([]models.JobLogEntry, error)
}

// ScheduleStorage - interface for stored recurring scrapes
type ScheduleStorage interface {
	SaveSchedule(ctx context.Context, schedule *models.Schedule) error
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// StorageManager - composite interface for all local storage operations
type StorageManager interface {
	JobStorage() JobStorage
	ScheduleStorage() ScheduleStorage
	Close() error
}
