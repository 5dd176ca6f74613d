// Package api exposes the HTTP interface for the lead generation service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/config"
	"github.com/mwhitlock/leadforge/internal/leads"
	"github.com/mwhitlock/leadforge/internal/metrics"
	"github.com/mwhitlock/leadforge/internal/orchestrator"
)

// Server wires HTTP handlers to the dispatcher and stores.
type Server struct {
	router     chi.Router
	jobStore   leads.JobStore
	leadStore  leads.LeadStore
	dispatcher *orchestrator.Dispatcher
	idGen      leads.IDGenerator
	clock      leads.Clock
	cfg        config.Config
	logger     *zap.Logger
}

// NewServer constructs a Server with middleware and routes. leadStore may be
// nil when the deployment runs without a durable lead collection.
func NewServer(
	jobStore leads.JobStore,
	leadStore leads.LeadStore,
	dispatcher *orchestrator.Dispatcher,
	idGen leads.IDGenerator,
	clock leads.Clock,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		jobStore:   jobStore,
		leadStore:  leadStore,
		dispatcher: dispatcher,
		idGen:      idGen,
		clock:      clock,
		cfg:        cfg,
		logger:     logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/scrape", func(r chi.Router) {
			r.Post("/", s.submitJob)
			r.Get("/", s.getJobStatus)
			r.Delete("/", s.cancelJob)
			r.Get("/status", s.getJobStatus)
		})
		r.Get("/leads", s.listLeads)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	filters := req.toFilterSet()
	if err := filters.Validate(); err != nil {
		switch {
		case errors.Is(err, leads.ErrEmptyFilter):
			s.writeError(w, http.StatusBadRequest, "At least one filter must be set")
		case errors.Is(err, leads.ErrInvalidRange):
			s.writeError(w, http.StatusBadRequest, "Invalid numeric range")
		default:
			s.writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	maxLeads := req.MaxLeads
	if maxLeads <= 0 {
		maxLeads = s.cfg.Scrape.MaxLeadsDefault
	}
	if ceiling := s.cfg.Scrape.MaxLeadsCeiling; ceiling > 0 && maxLeads > ceiling {
		maxLeads = ceiling
	}

	jobID, err := s.enqueueJob(r.Context(), filters, maxLeads)
	if err != nil {
		if errors.Is(err, leads.ErrTooManyJobs) {
			s.writeError(w, http.StatusTooManyRequests, "Too many concurrent jobs, retry later")
			return
		}
		s.logger.Error("job submission failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to start job")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"jobId":         jobID,
		"status":        "started",
		"estimatedTime": "2-5 minutes",
	})
}

func (s *Server) enqueueJob(ctx context.Context, filters leads.FilterSet, maxLeads int) (string, error) {
	jobID, err := s.idGen.NewID()
	if err != nil {
		return "", fmt.Errorf("generate job id: %w", err)
	}
	now := s.clock.Now()
	job := leads.Job{
		ID:        jobID,
		Status:    leads.JobStatusPending,
		Submitted: now,
		Filters:   filters,
		MaxLeads:  maxLeads,
	}
	if err := s.jobStore.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}
	queueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sub := leads.Submission{
		JobID:     jobID,
		Filters:   filters,
		MaxLeads:  maxLeads,
		Submitted: now.Unix(),
	}
	if err := s.dispatcher.Enqueue(queueCtx, sub); err != nil {
		// The pending entry would otherwise poll forever.
		if updErr := s.jobStore.UpdateStatus(ctx, jobID, leads.JobStatusFailed, "queue full"); updErr != nil {
			s.logger.Error("orphan job cleanup failed", zap.String("job_id", jobID), zap.Error(updErr))
		}
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return jobID, nil
}

func (s *Server) getJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "jobId is required")
		return
	}
	job, err := s.jobStore.Get(r.Context(), jobID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		s.writeError(w, http.StatusBadRequest, "jobId is required")
		return
	}
	if err := s.jobStore.RequestCancel(r.Context(), jobID); err != nil {
		s.writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Job cancellation requested",
		"jobId":   jobID,
	})
}

func (s *Server) listLeads(w http.ResponseWriter, r *http.Request) {
	if s.leadStore == nil {
		s.writeError(w, http.StatusNotImplemented, "lead persistence is not configured")
		return
	}
	q := leads.LeadQuery{
		Industry: r.URL.Query().Get("industry"),
		Location: r.URL.Query().Get("location"),
		Limit:    intQuery(r, "limit", 100),
		Offset:   intQuery(r, "offset", 0),
	}
	stored, err := s.leadStore.ListLeads(r.Context(), q)
	if err != nil {
		s.logger.Error("lead listing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	out := make([]leadResponse, 0, len(stored))
	for _, l := range stored {
		out = append(out, toLeadResponse(l))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"leads": out,
		"count": len(out),
	})
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
