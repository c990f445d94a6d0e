package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// ScrapeHandler handles scrape run and job API requests
type ScrapeHandler struct {
	scraperService interfaces.ScraperService
	jobStorage     interfaces.JobStorage
	logger         arbor.ILogger
}

// NewScrapeHandler creates a new scrape handler
func NewScrapeHandler(scraperService interfaces.ScraperService, jobStorage interfaces.JobStorage, logger arbor.ILogger) *ScrapeHandler {
	return &ScrapeHandler{
		scraperService: scraperService,
		jobStorage:     jobStorage,
		logger:         logger,
	}
}

// StartScrapeHandler starts a scrape session
// POST /api/scrape
func (h *ScrapeHandler) StartScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// The Authorization header wins over a token in the body, matching how
	// the extension clients send it.
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.AuthToken = strings.TrimPrefix(auth, "Bearer ")
	}

	jobID, err := h.scraperService.StartScrape(r.Context(), &req)
	if err != nil {
		if errors.Is(err, interfaces.ErrRunActive) {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to start scrape")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
		"job_id": jobID,
	})
}

// ListJobsHandler returns a paginated list of jobs
// GET /api/jobs?limit=50&offset=0&status=completed
func (h *ScrapeHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	opts := &interfaces.JobListOptions{
		Status: models.JobStatus(r.URL.Query().Get("status")),
		Limit:  QueryInt(r, "limit", 50),
		Offset: QueryInt(r, "offset", 0),
	}

	jobs, err := h.scraperService.ListJobs(r.Context(), opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":   jobs,
		"count":  len(jobs),
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// GetJobHandler returns a single job by ID
// GET /api/jobs/{id}
func (h *ScrapeHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(r.URL.Path)
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.scraperService.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// CancelJobHandler cancels a running job
// POST /api/jobs/{id}/cancel
func (h *ScrapeHandler) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(strings.TrimSuffix(r.URL.Path, "/cancel"))
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	if err := h.scraperService.CancelJob(r.Context(), jobID); err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "cancelling",
		"job_id": jobID,
	})
}

// DeleteJobHandler removes a terminal job record
// DELETE /api/jobs/{id}
func (h *ScrapeHandler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(r.URL.Path)
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	job, err := h.scraperService.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Job not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}
	if !job.Status.IsTerminal() {
		WriteError(w, http.StatusConflict, "Cannot delete a running job")
		return
	}

	if err := h.jobStorage.DeleteJob(r.Context(), jobID); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to delete job")
		WriteError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"job_id": jobID,
	})
}

// GetJobLogsHandler returns the stored log entries for a job
// GET /api/jobs/{id}/logs?limit=200
func (h *ScrapeHandler) GetJobLogsHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(strings.TrimSuffix(r.URL.Path, "/logs"))
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "Job ID is required")
		return
	}

	logs, err := h.jobStorage.GetLogs(r.Context(), jobID, QueryInt(r, "limit", 200))
	if err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job logs")
		WriteError(w, http.StatusInternalServerError, "Failed to get job logs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": jobID,
		"logs":   logs,
		"count":  len(logs),
	})
}

// jobIDFromPath extracts the job ID from paths of the form /api/jobs/{id}
func jobIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
