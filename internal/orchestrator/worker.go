// Package orchestrator implements the scraping pipeline execution loop:
// query expansion, concurrent source fan-out, dedup, enrichment, scoring,
// and incremental job-store updates.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/expand"
	"github.com/mwhitlock/leadforge/internal/leads"
	"github.com/mwhitlock/leadforge/internal/metrics"
	"github.com/mwhitlock/leadforge/internal/progress"
	"github.com/mwhitlock/leadforge/internal/score"
)

// Enricher fills missing emails on a merged batch in place.
type Enricher interface {
	Enrich(ctx context.Context, batch []leads.Lead)
}

// Config controls Worker behavior.
type Config struct {
	// JobTimeout bounds one job's total runtime; expiry completes the job
	// with whatever was collected.
	JobTimeout time.Duration
	// QueryBudget bounds the adapter fan-out for a single expanded query.
	QueryBudget time.Duration
	// QueryDelay inserts a pause between expanded queries to pace the
	// upstream sources beyond per-domain rate limiting. Zero disables it.
	QueryDelay time.Duration
	// CompletionTopic is where job completion events are published.
	CompletionTopic string
}

const (
	defaultJobTimeout  = 5 * time.Minute
	defaultQueryBudget = 30 * time.Second
	defaultMaxLeads    = 200
)

// Worker consumes submissions and drives each job to a terminal state.
type Worker struct {
	queue     leads.Queue
	jobStore  leads.JobStore
	leadStore leads.LeadStore
	adapters  []leads.SourceAdapter
	enricher  Enricher
	publisher leads.Publisher
	emitter   progress.Emitter
	clock     leads.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker. leadStore, enricher, publisher, and emitter are
// optional; the pipeline degrades to in-memory-only operation without them.
func New(
	queue leads.Queue,
	jobStore leads.JobStore,
	leadStore leads.LeadStore,
	adapters []leads.SourceAdapter,
	enricher Enricher,
	publisher leads.Publisher,
	emitter progress.Emitter,
	clock leads.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = defaultJobTimeout
	}
	if cfg.QueryBudget <= 0 {
		cfg.QueryBudget = defaultQueryBudget
	}
	return &Worker{
		queue:     queue,
		jobStore:  jobStore,
		leadStore: leadStore,
		adapters:  adapters,
		enricher:  enricher,
		publisher: publisher,
		emitter:   emitter,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run blocks, consuming submissions until the context finishes.
func (w *Worker) Run(ctx context.Context) {
	for {
		sub, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("queue dequeue failed", zap.Error(err))
			continue
		}
		w.logger.Debug("dequeued job", zap.String("job_id", sub.JobID))
		w.processJob(ctx, sub)
	}
}

func (w *Worker) processJob(ctx context.Context, sub leads.Submission) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("job panicked",
				zap.String("job_id", sub.JobID),
				zap.Any("panic", r),
			)
			w.finishJob(ctx, sub, leads.JobStatusFailed, fmt.Sprintf("internal error: %v", r), time.Time{})
		}
	}()

	if sub.MaxLeads <= 0 {
		sub.MaxLeads = defaultMaxLeads
	}

	if err := w.jobStore.UpdateStatus(ctx, sub.JobID, leads.JobStatusRunning, ""); err != nil {
		w.logger.Error("job start status update failed", zap.String("job_id", sub.JobID), zap.Error(err))
		return
	}
	metrics.IncActiveJobs()
	defer metrics.DecActiveJobs()

	started := w.clock.Now()
	w.emit(progress.Event{JobID: sub.JobID, TS: started, Stage: progress.StageJobStart})

	queries := expand.Queries(sub.Filters)
	deadline := started.Add(w.cfg.JobTimeout)
	dedupe := leads.NewDedupeSet()
	retained := 0

	for _, query := range queries {
		if cancelled, err := w.jobStore.CancelRequested(ctx, sub.JobID); err == nil && cancelled {
			w.finishJob(ctx, sub, leads.JobStatusFailed, "cancelled", started)
			return
		}
		if !w.clock.Now().Before(deadline) {
			w.logger.Warn("job timed out, keeping partial results",
				zap.String("job_id", sub.JobID),
				zap.Int("records", retained),
			)
			break
		}
		if ctx.Err() != nil {
			w.finishJob(ctx, sub, leads.JobStatusFailed, "shutdown", started)
			return
		}

		queryStart := w.clock.Now()
		collected := w.fanOut(ctx, sub.JobID, query)

		fresh := dedupe.Merge(collected)
		if remaining := sub.MaxLeads - retained; len(fresh) > remaining {
			fresh = fresh[:remaining]
		}
		if len(fresh) > 0 {
			w.finalizeBatch(ctx, sub, fresh)
			retained += len(fresh)

			pct := progressPct(retained, sub.MaxLeads)
			if err := w.jobStore.AppendRecords(ctx, sub.JobID, fresh, pct); err != nil {
				w.logger.Error("append records failed", zap.String("job_id", sub.JobID), zap.Error(err))
			}
			w.persist(ctx, sub.JobID, fresh)
		}

		w.emit(progress.Event{
			JobID:    sub.JobID,
			TS:       w.clock.Now(),
			Stage:    progress.StageQueryDone,
			Query:    query,
			Leads:    len(fresh),
			Progress: progressPct(retained, sub.MaxLeads),
			Dur:      w.clock.Now().Sub(queryStart),
		})

		if retained >= sub.MaxLeads {
			break
		}
		if w.cfg.QueryDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.cfg.QueryDelay):
			}
		}
	}

	w.finishJob(ctx, sub, leads.JobStatusCompleted, "", started)
}

// fanOut runs every adapter concurrently for one query. Adapter failures are
// counted and logged but never fail the job.
func (w *Worker) fanOut(ctx context.Context, jobID, query string) []leads.Lead {
	queryCtx, cancel := context.WithTimeout(ctx, w.cfg.QueryBudget)
	defer cancel()

	var (
		mu        sync.Mutex
		collected []leads.Lead
		wg        sync.WaitGroup
	)
	for _, a := range w.adapters {
		wg.Add(1)
		go func(a leads.SourceAdapter) {
			defer wg.Done()
			batch, err := a.Fetch(queryCtx, query)
			if err != nil {
				metrics.ObserveAdapterFailure(a.Name())
				w.logger.Warn("source adapter failed",
					zap.String("job_id", jobID),
					zap.String("source", a.Name()),
					zap.String("query", query),
					zap.Error(err),
				)
				return
			}
			metrics.ObserveLeads(a.Name(), len(batch))
			w.emit(progress.Event{
				JobID:  jobID,
				TS:     w.clock.Now(),
				Stage:  progress.StageAdapterDone,
				Source: a.Name(),
				Query:  query,
				Leads:  len(batch),
			})
			mu.Lock()
			collected = append(collected, batch...)
			mu.Unlock()
		}(a)
	}
	wg.Wait()
	return collected
}

// finalizeBatch runs enrichment and scoring over freshly retained leads.
func (w *Worker) finalizeBatch(ctx context.Context, sub leads.Submission, batch []leads.Lead) {
	for i := range batch {
		if batch[i].Industry == "" && len(sub.Filters.Industries) > 0 {
			batch[i].Industry = sub.Filters.Industries[0]
		}
		if batch[i].Location == "" && len(sub.Filters.Locations) > 0 {
			batch[i].Location = sub.Filters.Locations[0]
		}
	}
	if w.enricher != nil {
		w.enricher.Enrich(ctx, batch)
	}
	for i := range batch {
		batch[i].LeadScore = score.Score(batch[i], sub.Filters)
	}
}

func (w *Worker) persist(ctx context.Context, jobID string, batch []leads.Lead) {
	if w.leadStore == nil {
		return
	}
	saved, err := w.leadStore.SaveLeads(ctx, batch)
	if err != nil {
		w.logger.Warn("lead persistence failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("leads persisted",
		zap.String("job_id", jobID),
		zap.Int("saved", saved),
		zap.Int("batch", len(batch)),
	)
}

func (w *Worker) finishJob(ctx context.Context, sub leads.Submission, status leads.JobStatus, errText string, started time.Time) {
	if err := w.jobStore.UpdateStatus(ctx, sub.JobID, status, errText); err != nil {
		w.logger.Error("final job status update failed", zap.String("job_id", sub.JobID), zap.Error(err))
	}
	metrics.ObserveJob(string(status))

	now := w.clock.Now()
	var dur time.Duration
	if !started.IsZero() {
		dur = now.Sub(started)
	}
	stage := progress.StageJobDone
	if status == leads.JobStatusFailed {
		stage = progress.StageJobError
	}
	var records int
	if job, err := w.jobStore.Get(ctx, sub.JobID); err == nil {
		records = len(job.Records)
	}
	w.emit(progress.Event{JobID: sub.JobID, TS: now, Stage: stage, Leads: records, Dur: dur, Note: errText})

	w.publishCompletion(ctx, sub, status, errText)
}

func (w *Worker) publishCompletion(ctx context.Context, sub leads.Submission, status leads.JobStatus, errText string) {
	if w.publisher == nil || w.cfg.CompletionTopic == "" {
		return
	}
	payload := map[string]any{
		"jobId":  sub.JobID,
		"status": string(status),
	}
	if errText != "" {
		payload["error"] = errText
	}
	if job, err := w.jobStore.Get(ctx, sub.JobID); err == nil {
		payload["records"] = len(job.Records)
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.CompletionTopic, payload); err != nil {
		w.logger.Warn("completion publish failed",
			zap.String("job_id", sub.JobID),
			zap.Error(err),
		)
	}
}

func (w *Worker) emit(evt progress.Event) {
	if w.emitter == nil {
		return
	}
	w.emitter.Emit(evt)
}

// progressPct rounds retained/maxLeads to a whole percentage, capped at 99
// so only the terminal transition reports 100.
func progressPct(retained, maxLeads int) int {
	pct := (retained*100 + maxLeads/2) / maxLeads
	if pct > 99 {
		return 99
	}
	if pct < 0 {
		return 0
	}
	return pct
}
