package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique scrape job ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewScheduleID generates a unique schedule ID with the "sched_" prefix
func NewScheduleID() string {
	return "sched_" + uuid.New().String()
}
