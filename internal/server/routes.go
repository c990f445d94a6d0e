package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Scrape sessions
	mux.HandleFunc("/api/scrape", s.app.ScrapeHandler.StartScrapeHandler) // POST - start a session

	// API routes - Jobs
	mux.HandleFunc("/api/jobs", s.app.ScrapeHandler.ListJobsHandler)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - Schedules
	mux.HandleFunc("/api/schedules", s.handleSchedulesRoute) // GET (list), POST (create)
	mux.HandleFunc("/api/schedules/", s.handleScheduleRoutes)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobRoutes routes job-related requests to the appropriate handler
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	// POST /api/jobs/{id}/cancel
	if r.Method == "POST" && strings.HasSuffix(path, "/cancel") {
		s.app.ScrapeHandler.CancelJobHandler(w, r)
		return
	}

	// GET /api/jobs/{id}/logs
	if r.Method == "GET" && strings.HasSuffix(path, "/logs") {
		s.app.ScrapeHandler.GetJobLogsHandler(w, r)
		return
	}

	// GET /api/jobs/{id}
	if r.Method == "GET" && len(path) > len("/api/jobs/") {
		s.app.ScrapeHandler.GetJobHandler(w, r)
		return
	}

	// DELETE /api/jobs/{id}
	if r.Method == "DELETE" && len(path) > len("/api/jobs/") {
		s.app.ScrapeHandler.DeleteJobHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

// handleSchedulesRoute routes /api/schedules requests (list and create)
func (s *Server) handleSchedulesRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.ScheduleHandler.ListSchedulesHandler(w, r)
	case "POST":
		s.app.ScheduleHandler.CreateScheduleHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleScheduleRoutes routes /api/schedules/{id} requests
func (s *Server) handleScheduleRoutes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s.app.ScheduleHandler.GetScheduleHandler(w, r)
	case "DELETE":
		s.app.ScheduleHandler.DeleteScheduleHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
