package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/uploader"
)

// Service orchestrates scrape runs: one active session at a time, a
// persisted job record per run, and walk/upload wiring per contact.
type Service struct {
	driver   interfaces.PageDriver
	provider interfaces.StoreProvider
	events   interfaces.EventService
	jobs     interfaces.JobStorage
	config   *common.Config
	logger   arbor.ILogger
	validate *validator.Validate

	mu          sync.Mutex
	activeJobID string
	cancelRun   context.CancelFunc
}

// NewService creates the scraper service
func NewService(driver interfaces.PageDriver, provider interfaces.StoreProvider, events interfaces.EventService, jobs interfaces.JobStorage, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		driver:   driver,
		provider: provider,
		events:   events,
		jobs:     jobs,
		config:   config,
		logger:   logger,
		validate: validator.New(),
	}
}

// StartScrape validates the request, persists a pending job, and launches
// the run in the background. Only one session runs at a time.
func (s *Service) StartScrape(ctx context.Context, req *models.ScrapeRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("invalid scrape request: %w", err)
	}

	job := &models.ScrapeJob{
		ID:        common.NewJobID(),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Contacts:  req.Contacts,
		ItemLimit: req.ItemLimit,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	if s.activeJobID != "" {
		active := s.activeJobID
		s.mu.Unlock()
		return "", fmt.Errorf("%w: job %s", interfaces.ErrRunActive, active)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.activeJobID = job.ID
	s.cancelRun = cancel
	s.mu.Unlock()

	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.releaseRun(job.ID)
		cancel()
		return "", fmt.Errorf("failed to persist job: %w", err)
	}

	s.logger.Info().
		Str("job_id", job.ID).
		Str("session_id", req.SessionID).
		Int("contacts", len(req.Contacts)).
		Msg("Scrape job accepted")

	go s.runSession(runCtx, job, req.AuthToken)

	return job.ID, nil
}

// CancelJob cancels the active run's context. Terminal jobs are left alone.
func (s *Service) CancelJob(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("job %s already %s", jobID, job.Status)
	}

	s.mu.Lock()
	isActive := s.activeJobID == jobID
	cancel := s.cancelRun
	s.mu.Unlock()

	if !isActive {
		// Pending job left over from a crash; close it out directly.
		job.Status = models.JobStatusCancelled
		job.CompletedAt = time.Now()
		return s.jobs.SaveJob(ctx, job)
	}

	cancel()
	s.logger.Info().Str("job_id", jobID).Msg("Cancellation requested")
	return nil
}

// GetJob returns the persisted job record
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.ScrapeJob, error) {
	return s.jobs.GetJob(ctx, jobID)
}

// ListJobs returns persisted jobs, newest first
func (s *Service) ListJobs(ctx context.Context, opts *interfaces.JobListOptions) ([]*models.ScrapeJob, error) {
	return s.jobs.ListJobs(ctx, opts)
}

func (s *Service) releaseRun(jobID string) {
	s.mu.Lock()
	if s.activeJobID == jobID {
		s.activeJobID = ""
		s.cancelRun = nil
	}
	s.mu.Unlock()
}

// runSession owns a scrape run end to end. Finalization and job bookkeeping
// run on a background context so cancellation still produces a consistent
// terminal state.
func (s *Service) runSession(ctx context.Context, job *models.ScrapeJob, authToken string) {
	defer s.releaseRun(job.ID)

	// Terminal writes must survive run cancellation
	finishCtx, finishCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer finishCancel()

	session := &models.SessionContext{
		UserID:    job.UserID,
		SessionID: job.SessionID,
		Contacts:  job.Contacts,
		AuthToken: authToken,
		ItemLimit: job.ItemLimit,
	}

	coordinator := uploader.NewCoordinator(
		s.provider.SessionStore(authToken),
		s.provider.ObjectStore(authToken),
		s.events,
		&s.config.Uploader,
		s.logger,
	)

	job.Status = models.JobStatusRunning
	job.StartedAt = time.Now()
	if err := s.jobs.SaveJob(finishCtx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to mark job running")
	}
	s.logToJob(finishCtx, job.ID, "info", fmt.Sprintf("Session %s started with %d contacts", job.SessionID, len(job.Contacts)))

	_ = s.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventSessionStarted,
		Payload: map[string]interface{}{
			"job_id":     job.ID,
			"session_id": job.SessionID,
			"contacts":   len(job.Contacts),
		},
	})

	if err := coordinator.Begin(ctx, session); err != nil {
		s.failJob(finishCtx, job, coordinator, fmt.Errorf("failed to begin session: %w", err))
		return
	}

	navigator := NewNavigator(s.driver, &s.config.Scraper, s.logger)
	walker := NewWalker(s.driver, NewDetailExtractor(s.driver, &s.config.Scraper, s.logger), &s.config.Scraper, s.logger)

	var results []models.ContactResult
	var fatal error

	for _, contact := range job.Contacts {
		if err := ctx.Err(); err != nil {
			fatal = err
			break
		}
		if coordinator.LimitReached() {
			s.logToJob(finishCtx, job.ID, "info", "Session item limit reached, stopping walk")
			break
		}

		start := time.Now()

		if err := navigator.OpenContactCatalog(ctx, contact); err != nil {
			if ctx.Err() != nil {
				fatal = ctx.Err()
				break
			}
			s.logger.Warn().Err(err).Str("contact", contact).Msg("Skipping contact")
			s.logToJob(finishCtx, job.ID, "warn", fmt.Sprintf("Skipping contact %s: %v", contact, err))
			results = append(results, models.ContactResult{
				Contact:  contact,
				Outcome:  models.ContactSkipped,
				Error:    err.Error(),
				Duration: time.Since(start),
			})
			continue
		}

		count, outcome, err := walker.Walk(ctx, contact, coordinator)
		result := models.ContactResult{
			Contact:  contact,
			Outcome:  outcome,
			Items:    count,
			Duration: time.Since(start),
		}
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)

		if err != nil && (errors.Is(err, interfaces.ErrUnauthorized) || ctx.Err() != nil) {
			fatal = err
		}

		// Back to the chat list for the next search; the next navigation
		// recovers if this fails.
		if fatal == nil {
			if err := navigator.Back(ctx); err != nil {
				s.logger.Debug().Err(err).Str("contact", contact).Msg("Back navigation failed after walk")
			}
		}

		job.Progress = coordinator.Progress()
		job.Results = results
		if err := s.jobs.SaveJob(finishCtx, job); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job progress")
		}
		s.logToJob(finishCtx, job.ID, "info", fmt.Sprintf("Contact %s finished: %s, %d items", contact, outcome, count))

		_ = s.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventContactCompleted,
			Payload: map[string]interface{}{
				"job_id":   job.ID,
				"contact":  contact,
				"outcome":  string(outcome),
				"items":    count,
				"progress": job.Progress,
			},
		})

		if fatal != nil {
			break
		}
	}

	if fatal != nil {
		if errors.Is(fatal, context.Canceled) {
			s.cancelledJob(finishCtx, job, coordinator, results)
			return
		}
		s.failJob(finishCtx, job, coordinator, fatal)
		return
	}

	summary, err := coordinator.Finalize(finishCtx, results)
	job.Progress = summary.Progress
	job.Results = results
	job.CompletedAt = time.Now()

	if err != nil {
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
		if saveErr := s.jobs.SaveJob(finishCtx, job); saveErr != nil {
			s.logger.Error().Err(saveErr).Str("job_id", job.ID).Msg("Failed to persist failed job")
		}
		s.logToJob(finishCtx, job.ID, "error", fmt.Sprintf("Finalize failed: %v", err))
		_ = s.events.Publish(finishCtx, interfaces.Event{
			Type:    interfaces.EventSessionFailed,
			Payload: map[string]interface{}{"job_id": job.ID, "error": err.Error()},
		})
		return
	}

	job.Status = models.JobStatusCompleted
	if err := s.jobs.SaveJob(finishCtx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist completed job")
	}
	s.logToJob(finishCtx, job.ID, "info", fmt.Sprintf("Session completed: %d uploaded, %d failed, %d reconciled, empty=%t",
		summary.Progress.Success, summary.Progress.Failure, summary.Reconciled, summary.Empty))

	_ = s.events.Publish(finishCtx, interfaces.Event{
		Type:    interfaces.EventSessionCompleted,
		Payload: summary,
	})
}

func (s *Service) failJob(ctx context.Context, job *models.ScrapeJob, coordinator *uploader.Coordinator, cause error) {
	coordinator.Fail(ctx, cause.Error())

	job.Status = models.JobStatusFailed
	job.Error = cause.Error()
	job.Progress = coordinator.Progress()
	job.CompletedAt = time.Now()
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist failed job")
	}
	s.logToJob(ctx, job.ID, "error", fmt.Sprintf("Session failed: %v", cause))
	s.logger.Error().Err(cause).Str("job_id", job.ID).Msg("Scrape session failed")

	_ = s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventSessionFailed,
		Payload: map[string]interface{}{"job_id": job.ID, "error": cause.Error()},
	})
}

func (s *Service) cancelledJob(ctx context.Context, job *models.ScrapeJob, coordinator *uploader.Coordinator, results []models.ContactResult) {
	coordinator.Fail(ctx, "cancelled")

	job.Status = models.JobStatusCancelled
	job.Progress = coordinator.Progress()
	job.Results = results
	job.CompletedAt = time.Now()
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist cancelled job")
	}
	s.logToJob(ctx, job.ID, "warn", "Session cancelled")
	s.logger.Warn().Str("job_id", job.ID).Msg("Scrape session cancelled")

	_ = s.events.Publish(ctx, interfaces.Event{
		Type:    interfaces.EventSessionFailed,
		Payload: map[string]interface{}{"job_id": job.ID, "error": "cancelled"},
	})
}

// logToJob appends a log line to the job's persisted log
func (s *Service) logToJob(ctx context.Context, jobID, level, message string) {
	entry := models.JobLogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   message,
	}
	if err := s.jobs.AppendLog(ctx, jobID, entry); err != nil {
		s.logger.Debug().Err(err).Str("job_id", jobID).Msg("Failed to append job log")
	}
}

var _ interfaces.ScraperService = (*Service)(nil)
