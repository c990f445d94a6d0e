package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// ScraperService runs catalog scrape sessions. One session is active at a
// time; StartScrape returns ErrRunActive while a run is in flight.
type ScraperService interface {
	// StartScrape validates the request, registers a job, and runs the
	// session in the background. Returns the job ID immediately.
	StartScrape(ctx context.Context, req *models.ScrapeRequest) (string, error)

	// CancelJob cancels a running job's context. Completed jobs are left
	// untouched.
	CancelJob(ctx context.Context, jobID string) error

	// GetJob returns the persisted job record with live counters.
	GetJob(ctx context.Context, jobID string) (*models.ScrapeJob, error)

	// ListJobs returns persisted jobs, newest first.
	ListJobs(ctx context.Context, opts *JobListOptions) ([]*models.ScrapeJob, error)
}

// SchedulerService manages recurring scheduled scrapes
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop() error
	AddSchedule(ctx context.Context, schedule *models.Schedule) error
	RemoveSchedule(ctx context.Context, id string) error
	GetSchedule(ctx context.Context, id string) (*models.Schedule, error)
	ListSchedules(ctx context.Context) ([]*models.Schedule, error)
}
