package models

import (
	"time"
)

// JobStatus represents the state of a scrape job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// ScrapeJob is the locally persisted record of a scrape run. The remote
// session document is the source of truth for uploaded items; this record
// exists so runs stay listable and inspectable across restarts.
type ScrapeJob struct {
	ID        string          `json:"id" badgerhold:"key"`
	UserID    string          `json:"user_id"`
	SessionID string          `json:"session_id" badgerholdIndex:"SessionID"`
	Contacts  []string        `json:"contacts"`
	ItemLimit int             `json:"item_limit,omitempty"`
	Status    JobStatus       `json:"status" badgerholdIndex:"Status"`
	Progress  SessionProgress `json:"progress"`
	Results   []ContactResult `json:"results,omitempty"`
	// Error is a concise description of why the job failed, only populated
	// in the failed state.
	Error       string    `json:"error,omitempty"`
	ScheduleID  string    `json:"schedule_id,omitempty"` // Set when the run was started by the scheduler
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// JobLogEntry represents a single log entry for a scrape job
type JobLogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ScrapeRequest starts a run. The auth token is forwarded to the remote
// stores and never persisted.
type ScrapeRequest struct {
	UserID    string   `json:"userId" validate:"required"`
	SessionID string   `json:"sessionId" validate:"required"`
	Contacts  []string `json:"contacts" validate:"required,min=1,dive,required"`
	AuthToken string   `json:"authToken" validate:"required"`
	ItemLimit int      `json:"itemLimit,omitempty" validate:"gte=0"`
}

// Schedule is a stored recurring scrape. Spec is a cron expression; the
// request template is reused for every firing except the auth token, which
// must still be valid at fire time.
type Schedule struct {
	ID        string        `json:"id" badgerhold:"key"`
	Name      string        `json:"name"`
	Spec      string        `json:"spec"` // Cron expression
	Request   ScrapeRequest `json:"request"`
	Enabled   bool          `json:"enabled"`
	CreatedAt time.Time     `json:"created_at"`
	LastRunAt time.Time     `json:"last_run_at,omitempty"`
	LastJobID string        `json:"last_job_id,omitempty"`
}
