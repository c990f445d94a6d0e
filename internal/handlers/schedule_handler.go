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

// ScheduleHandler handles recurring scrape schedule endpoints
type ScheduleHandler struct {
	schedulerService interfaces.SchedulerService
	logger           arbor.ILogger
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedulerService interfaces.SchedulerService, logger arbor.ILogger) *ScheduleHandler {
	return &ScheduleHandler{
		schedulerService: schedulerService,
		logger:           logger,
	}
}

// ListSchedulesHandler returns all stored schedules
// GET /api/schedules
func (h *ScheduleHandler) ListSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.schedulerService.ListSchedules(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list schedules")
		WriteError(w, http.StatusInternalServerError, "Failed to list schedules")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// CreateScheduleHandler stores and registers a new schedule
// POST /api/schedules
func (h *ScheduleHandler) CreateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	var schedule models.Schedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.schedulerService.AddSchedule(r.Context(), &schedule); err != nil {
		h.logger.Error().Err(err).Str("spec", schedule.Spec).Msg("Failed to add schedule")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, &schedule)
}

// GetScheduleHandler returns a single schedule by ID
// GET /api/schedules/{id}
func (h *ScheduleHandler) GetScheduleHandler(w http.ResponseWriter, r *http.Request) {
	scheduleID := scheduleIDFromPath(r.URL.Path)
	if scheduleID == "" {
		WriteError(w, http.StatusBadRequest, "Schedule ID is required")
		return
	}

	schedule, err := h.schedulerService.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		if errors.Is(err, interfaces.ErrScheduleNotFound) {
			WriteError(w, http.StatusNotFound, "Schedule not found")
			return
		}
		h.logger.Error().Err(err).Str("schedule_id", scheduleID).Msg("Failed to get schedule")
		WriteError(w, http.StatusInternalServerError, "Failed to get schedule")
		return
	}

	WriteJSON(w, http.StatusOK, schedule)
}

// DeleteScheduleHandler removes a schedule
// DELETE /api/schedules/{id}
func (h *ScheduleHandler) DeleteScheduleHandler(w http.ResponseWriter, r *http.Request) {
	scheduleID := scheduleIDFromPath(r.URL.Path)
	if scheduleID == "" {
		WriteError(w, http.StatusBadRequest, "Schedule ID is required")
		return
	}

	if err := h.schedulerService.RemoveSchedule(r.Context(), scheduleID); err != nil {
		if errors.Is(err, interfaces.ErrScheduleNotFound) {
			WriteError(w, http.StatusNotFound, "Schedule not found")
			return
		}
		h.logger.Error().Err(err).Str("schedule_id", scheduleID).Msg("Failed to remove schedule")
		WriteError(w, http.StatusInternalServerError, "Failed to remove schedule")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "deleted",
		"schedule_id": scheduleID,
	})
}

// scheduleIDFromPath extracts the ID from paths of the form /api/schedules/{id}
func scheduleIDFromPath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
