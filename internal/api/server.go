// Package api exposes the learning core over HTTP: roadmap summaries,
// lesson and quiz mutations, schedules, backup and reports, plus a
// WebSocket stream of progress events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/p-n-ai/pai-lms/internal/catalog"
	"github.com/p-n-ai/pai-lms/internal/progress"
	"github.com/p-n-ai/pai-lms/internal/quiz"
	"github.com/p-n-ai/pai-lms/internal/schedule"
)

const (
	maxBodyBytes = 10 << 20
	readyTimeout = 2 * time.Second
)

// Config holds the server's dependencies.
type Config struct {
	Store     *progress.Store
	Scheduler *schedule.Scheduler
	Quizzes   *quiz.Bank // optional
	Hub       *Hub       // optional; serves /api/events when set

	// CompleteOnPass marks a lesson complete when its quiz is passed.
	CompleteOnPass bool
}

// Server handles HTTP requests.
type Server struct {
	store          *progress.Store
	catalog        *catalog.Catalog
	scheduler      *schedule.Scheduler
	quizzes        *quiz.Bank
	hub            *Hub
	completeOnPass bool
}

// New creates a server.
func New(cfg Config) *Server {
	sched := cfg.Scheduler
	if sched == nil {
		sched = schedule.New(cfg.Store, cfg.Store.Clock())
	}
	return &Server{
		store:          cfg.Store,
		catalog:        cfg.Store.Catalog(),
		scheduler:      sched,
		quizzes:        cfg.Quizzes,
		hub:            cfg.Hub,
		completeOnPass: cfg.CompleteOnPass,
	}
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	mux.HandleFunc("GET /api/roadmaps", s.handleListRoadmaps)
	mux.HandleFunc("GET /api/roadmaps/{roadmap}", s.handleGetRoadmap)
	mux.HandleFunc("GET /api/roadmaps/{roadmap}/phases/{phase}", s.handleGetPhase)
	mux.HandleFunc("GET /api/roadmaps/{roadmap}/phases/{phase}/topics/{topic}", s.handleGetTopic)
	mux.HandleFunc("DELETE /api/roadmaps/{roadmap}/progress", s.handleResetProgress)
	mux.HandleFunc("PUT /api/roadmaps/{roadmap}/schedule", s.handleSetSchedule)
	mux.HandleFunc("DELETE /api/roadmaps/{roadmap}/schedule", s.handleClearSchedule)
	mux.HandleFunc("GET /api/roadmaps/{roadmap}/report.xlsx", s.handleReport)

	mux.HandleFunc("POST /api/roadmaps/{roadmap}/lessons/{phase}/{topic}/{subtopic}/complete", s.handleComplete)
	mux.HandleFunc("GET /api/roadmaps/{roadmap}/lessons/{phase}/{topic}/{subtopic}/quiz", s.handleGetQuiz)
	mux.HandleFunc("POST /api/roadmaps/{roadmap}/lessons/{phase}/{topic}/{subtopic}/quiz", s.handleSubmitQuiz)

	mux.HandleFunc("GET /api/progress/export", s.handleExport)
	mux.HandleFunc("POST /api/progress/import", s.handleImport)

	if s.hub != nil {
		mux.Handle("GET /api/events", s.hub)
	}
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		slog.Warn("storage not ready", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// roadmap resolves the {roadmap} path value, writing a 404 if unknown.
func (s *Server) roadmap(w http.ResponseWriter, r *http.Request) (*catalog.Roadmap, bool) {
	id := r.PathValue("roadmap")
	rd, ok := s.catalog.Roadmap(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown roadmap "+id)
		return nil, false
	}
	return rd, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps validation failures to 400 and anything else to 500.
func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, progress.ErrInvalid) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	slog.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// decodeBody reads an optional JSON body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
