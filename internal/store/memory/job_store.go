// Package memory provides the in-memory job store backing the polling API.
// Jobs live for a bounded retention window after finishing; the collection is
// authoritative for job state while the durable lead collection lives in
// Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// Config tunes the job store.
type Config struct {
	// Retention is how long a finished job remains readable. Zero keeps
	// finished jobs forever.
	Retention time.Duration
	// SweepInterval is how often the background sweeper scans for expired
	// jobs. Zero disables the sweeper; expiry is then enforced on read only.
	SweepInterval time.Duration
}

type jobEntry struct {
	job          leads.Job
	cancelWanted bool
}

// JobStore implements leads.JobStore over a mutex-guarded map.
type JobStore struct {
	mu      sync.RWMutex
	jobs    map[string]*jobEntry
	cfg     Config
	clock   leads.Clock
	logger  *zap.Logger
	stopped chan struct{}
}

// NewJobStore constructs the store. Call Run to enable background sweeping.
func NewJobStore(cfg Config, clock leads.Clock, logger *zap.Logger) *JobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobStore{
		jobs:    make(map[string]*jobEntry),
		cfg:     cfg,
		clock:   clock,
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Run sweeps expired jobs until ctx is cancelled. It returns immediately when
// sweeping is disabled.
func (s *JobStore) Run(ctx context.Context) {
	defer close(s.stopped)
	if s.cfg.SweepInterval <= 0 || s.cfg.Retention <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("evicted expired jobs", zap.Int("count", n))
			}
		}
	}
}

// Create registers a new job. The id must be unused.
func (s *JobStore) Create(_ context.Context, job leads.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return leads.ErrJobExists
	}
	s.jobs[job.ID] = &jobEntry{job: cloneJob(job)}
	return nil
}

// Get returns a snapshot of the job. A finished job past the retention window
// is evicted and reported as unknown, matching a job that never existed.
func (s *JobStore) Get(_ context.Context, jobID string) (leads.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return leads.Job{}, leads.ErrJobNotFound
	}
	if s.expired(entry) {
		delete(s.jobs, jobID)
		return leads.Job{}, leads.ErrJobNotFound
	}
	return cloneJob(entry.job), nil
}

// UpdateStatus transitions the job's lifecycle state. Terminal states are
// final: a late transition against a finished job is ignored, which absorbs
// the race between a completing worker and a concurrent cancel.
func (s *JobStore) UpdateStatus(_ context.Context, jobID string, status leads.JobStatus, errText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return leads.ErrJobNotFound
	}
	if entry.job.Status.IsTerminal() {
		return nil
	}
	now := s.clock.Now()
	entry.job.Status = status
	switch {
	case status == leads.JobStatusRunning:
		entry.job.Started = &now
	case status.IsTerminal():
		entry.job.Completed = &now
		entry.job.ErrorText = errText
		if status == leads.JobStatusCompleted {
			entry.job.Progress = 100
		}
	}
	return nil
}

// AppendRecords adds a merged batch and advances progress. Progress is
// monotonic and capped below 100 until the job finishes; a stale lower value
// from a racing reporter never rolls it back.
func (s *JobStore) AppendRecords(_ context.Context, jobID string, batch []leads.Lead, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return leads.ErrJobNotFound
	}
	if entry.job.Status.IsTerminal() {
		return nil
	}
	entry.job.Records = append(entry.job.Records, batch...)
	if progress > 99 {
		progress = 99
	}
	if progress > entry.job.Progress {
		entry.job.Progress = progress
	}
	return nil
}

// RequestCancel flags the job for cooperative cancellation. Flagging a job
// that already finished is a no-op.
func (s *JobStore) RequestCancel(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return leads.ErrJobNotFound
	}
	if !entry.job.Status.IsTerminal() {
		entry.cancelWanted = true
	}
	return nil
}

// CancelRequested reports whether cancellation has been requested.
func (s *JobStore) CancelRequested(_ context.Context, jobID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.jobs[jobID]
	if !ok {
		return false, leads.ErrJobNotFound
	}
	return entry.cancelWanted, nil
}

// Len reports the number of retained jobs, expired or not.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *JobStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted int
	for id, entry := range s.jobs {
		if s.expired(entry) {
			delete(s.jobs, id)
			evicted++
		}
	}
	return evicted
}

// expired requires the caller to hold at least a read lock.
func (s *JobStore) expired(entry *jobEntry) bool {
	if s.cfg.Retention <= 0 {
		return false
	}
	if !entry.job.Status.IsTerminal() || entry.job.Completed == nil {
		return false
	}
	return s.clock.Now().Sub(*entry.job.Completed) >= s.cfg.Retention
}

func cloneJob(job leads.Job) leads.Job {
	out := job
	out.Records = append([]leads.Lead(nil), job.Records...)
	if job.Started != nil {
		t := *job.Started
		out.Started = &t
	}
	if job.Completed != nil {
		t := *job.Completed
		out.Completed = &t
	}
	return out
}
