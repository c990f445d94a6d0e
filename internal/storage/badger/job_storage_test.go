package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()

	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testJob(id string, status models.JobStatus, createdAt time.Time) *models.ScrapeJob {
	return &models.ScrapeJob{
		ID:        id,
		UserID:    "u1",
		SessionID: "s1",
		Contacts:  []string{"Alice Motors"},
		Status:    status,
		CreatedAt: createdAt,
	}
}

func TestJobStorageSaveAndGet(t *testing.T) {
	storage := NewJobStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	job := testJob("job_1", models.JobStatusPending, time.Now())
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := storage.GetJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.SessionID != "s1" || got.Status != models.JobStatusPending {
		t.Errorf("got job %+v", got)
	}

	// Upsert: saving again updates in place
	job.Status = models.JobStatusCompleted
	if err := storage.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob update failed: %v", err)
	}
	got, err = storage.GetJob(ctx, "job_1")
	if err != nil {
		t.Fatalf("GetJob after update failed: %v", err)
	}
	if got.Status != models.JobStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
}

func TestJobStorageGetMissing(t *testing.T) {
	storage := NewJobStorage(newTestDB(t), arbor.NewLogger())

	_, err := storage.GetJob(context.Background(), "nope")
	if !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestJobStorageListNewestFirst(t *testing.T) {
	storage := NewJobStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"job_a", "job_b", "job_c"} {
		job := testJob(id, models.JobStatusCompleted, base.Add(time.Duration(i)*time.Minute))
		if err := storage.SaveJob(ctx, job); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}
	}

	jobs, err := storage.ListJobs(ctx, nil)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("listed %d jobs, want 3", len(jobs))
	}
	if jobs[0].ID != "job_c" || jobs[2].ID != "job_a" {
		t.Errorf("order = %s, %s, %s; want newest first", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}
}

func TestJobStorageListByStatus(t *testing.T) {
	storage := NewJobStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	if err := storage.SaveJob(ctx, testJob("job_1", models.JobStatusRunning, time.Now())); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	if err := storage.SaveJob(ctx, testJob("job_2", models.JobStatusFailed, time.Now())); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	jobs, err := storage.ListJobs(ctx, &interfaces.JobListOptions{Status: models.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "job_2" {
		t.Errorf("filtered jobs = %v", jobs)
	}
}

func TestJobStorageLogs(t *testing.T) {
	storage := NewJobStorage(newTestDB(t), arbor.NewLogger())
	ctx := context.Background()

	if err := storage.SaveJob(ctx, testJob("job_1", models.JobStatusRunning, time.Now())); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	for _, msg := range []string{"first", "second", "third"} {
		entry := models.JobLogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Level:     "info",
			Message:   msg,
		}
		if err := storage.AppendLog(ctx, "job_1", entry); err != nil {
			t.Fatalf("AppendLog failed: %v", err)
		}
	}

	logs, err := storage.GetLogs(ctx, "job_1", 0)
	if err != nil {
		t.Fatalf("GetLogs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("got %d logs, want 3", len(logs))
	}
	if logs[0].Message != "first" || logs[2].Message != "third" {
		t.Errorf("log order = %q, %q, %q", logs[0].Message, logs[1].Message, logs[2].Message)
	}

	// Deleting the job drops its logs too
	if err := storage.DeleteJob(ctx, "job_1"); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}
	logs, err = storage.GetLogs(ctx, "job_1", 0)
	if err != nil {
		t.Fatalf("GetLogs after delete failed: %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("got %d logs after delete, want 0", len(logs))
	}
}
