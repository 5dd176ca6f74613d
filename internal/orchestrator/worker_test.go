package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/leads"
	"github.com/mwhitlock/leadforge/internal/progress"
	pubmemory "github.com/mwhitlock/leadforge/internal/publisher/memory"
	queuememory "github.com/mwhitlock/leadforge/internal/queue/memory"
	storememory "github.com/mwhitlock/leadforge/internal/store/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeAdapter yields a fixed batch per call, optionally failing or running a
// hook first (used to advance the fake clock or trigger cancellation).
type fakeAdapter struct {
	name  string
	batch []leads.Lead
	err   error
	hook  func()

	mu    sync.Mutex
	calls int
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Fetch(_ context.Context, _ string) ([]leads.Lead, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.hook != nil {
		a.hook()
	}
	if a.err != nil {
		return nil, a.err
	}
	return append([]leads.Lead(nil), a.batch...), nil
}

func (a *fakeAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

type fakeEnricher struct {
	mu      sync.Mutex
	batches int
}

func (e *fakeEnricher) Enrich(_ context.Context, batch []leads.Lead) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	for i := range batch {
		batch[i].EnrichmentStatus = leads.EnrichmentCompleted
	}
}

type captureEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (c *captureEmitter) Emit(evt progress.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evt)
}

func (c *captureEmitter) Stages() []progress.Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]progress.Stage, len(c.events))
	for i, evt := range c.events {
		out[i] = evt.Stage
	}
	return out
}

type fixture struct {
	worker    *Worker
	jobStore  *storememory.JobStore
	publisher *pubmemory.Publisher
	emitter   *captureEmitter
	enricher  *fakeEnricher
	clock     *fakeClock
}

func newFixture(t *testing.T, cfg Config, adapters ...leads.SourceAdapter) *fixture {
	t.Helper()
	clock := newFakeClock()
	jobStore := storememory.NewJobStore(storememory.Config{}, clock, zap.NewNop())
	publisher := pubmemory.New()
	emitter := &captureEmitter{}
	enricher := &fakeEnricher{}
	if cfg.CompletionTopic == "" {
		cfg.CompletionTopic = "jobs.completed"
	}
	w := New(
		queuememory.NewQueue(1),
		jobStore,
		nil,
		adapters,
		enricher,
		publisher,
		emitter,
		clock,
		cfg,
		zap.NewNop(),
	)
	return &fixture{worker: w, jobStore: jobStore, publisher: publisher, emitter: emitter, enricher: enricher, clock: clock}
}

func submission(maxLeads int, titles ...string) leads.Submission {
	return leads.Submission{
		JobID:    "job-1",
		Filters:  leads.FilterSet{Titles: titles},
		MaxLeads: maxLeads,
	}
}

func createJob(t *testing.T, f *fixture, sub leads.Submission) {
	t.Helper()
	require.NoError(t, f.jobStore.Create(context.Background(), leads.Job{
		ID:       sub.JobID,
		Status:   leads.JobStatusPending,
		Filters:  sub.Filters,
		MaxLeads: sub.MaxLeads,
	}))
}

func TestProcessJobCompletesWithDedupedScoredRecords(t *testing.T) {
	lead1 := leads.Lead{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"}
	lead2 := leads.Lead{FullName: "John Smith", CompanyName: "Sunshine Homes Inc", Source: "search_index"}
	dup := leads.Lead{FullName: "JANE DOE", CompanyName: "acme realty llc", Source: "search_index"}

	a := &fakeAdapter{name: "directory", batch: []leads.Lead{lead1}}
	b := &fakeAdapter{name: "search_index", batch: []leads.Lead{dup, lead2}}
	// Two distinct unknown titles expand to exactly two queries.
	sub := submission(10, "aaa", "bbb")
	f := newFixture(t, Config{}, a, b)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, job.Status)
	require.Equal(t, 100, job.Progress)
	require.Len(t, job.Records, 2, "case-insensitive duplicates collapse, repeats across queries drop")
	for _, rec := range job.Records {
		require.NotZero(t, rec.LeadScore)
		require.Equal(t, leads.EnrichmentCompleted, rec.EnrichmentStatus)
	}

	require.Equal(t, 2, a.Calls())
	require.Equal(t, 2, b.Calls())

	msgs := f.publisher.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, "jobs.completed", msgs[0].Topic)

	stages := f.emitter.Stages()
	require.Equal(t, progress.StageJobStart, stages[0])
	require.Equal(t, progress.StageJobDone, stages[len(stages)-1])
}

func TestProcessJobToleratesAdapterFailures(t *testing.T) {
	good := &fakeAdapter{name: "directory", batch: []leads.Lead{
		{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"},
	}}
	bad := &fakeAdapter{name: "search_index", err: errors.New("blocked")}
	sub := submission(10, "aaa")
	f := newFixture(t, Config{}, good, bad)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, job.Status, "adapter failure never fails the job")
	require.Len(t, job.Records, 1)
	require.Empty(t, job.ErrorText)
}

func TestProcessJobAllAdaptersFailingStillCompletes(t *testing.T) {
	bad := &fakeAdapter{name: "search_index", err: errors.New("blocked")}
	sub := submission(10, "aaa")
	f := newFixture(t, Config{}, bad)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, job.Status)
	require.Empty(t, job.Records)
}

func TestProcessJobStopsAtMaxLeads(t *testing.T) {
	a := &fakeAdapter{name: "directory", batch: []leads.Lead{
		{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"},
		{FullName: "John Smith", CompanyName: "Sunshine Homes Inc", Source: "directory"},
		{FullName: "Sam Stone", CompanyName: "Stone Partners", Source: "directory"},
	}}
	sub := submission(1, "aaa", "bbb", "ccc")
	f := newFixture(t, Config{}, a)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, job.Status)
	require.Len(t, job.Records, 1, "records never exceed the cap")
	require.Equal(t, 1, a.Calls(), "remaining queries are skipped once the cap is hit")
}

func TestProcessJobProgressRoundsToNearestPercent(t *testing.T) {
	a := &fakeAdapter{name: "directory", batch: []leads.Lead{
		{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"},
		{FullName: "John Smith", CompanyName: "Sunshine Homes Inc", Source: "directory"},
	}}
	// 2 of 3 leads retained after the single query: 66.67% rounds to 67.
	sub := submission(3, "aaa")
	f := newFixture(t, Config{}, a)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	var queryDone *progress.Event
	for i := range f.emitter.events {
		if f.emitter.events[i].Stage == progress.StageQueryDone {
			queryDone = &f.emitter.events[i]
		}
	}
	require.NotNil(t, queryDone)
	require.Equal(t, 67, queryDone.Progress)
}

func TestProcessJobCancelBetweenQueries(t *testing.T) {
	var f *fixture
	a := &fakeAdapter{
		name:  "directory",
		batch: []leads.Lead{{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"}},
		hook: func() {
			require.NoError(t, f.jobStore.RequestCancel(context.Background(), "job-1"))
		},
	}
	sub := submission(10, "aaa", "bbb")
	f = newFixture(t, Config{}, a)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusFailed, job.Status)
	require.Equal(t, "cancelled", job.ErrorText)
	require.Len(t, job.Records, 1, "work done before the cancel check is kept")
	require.Equal(t, 1, a.Calls())

	stages := f.emitter.Stages()
	require.Equal(t, progress.StageJobError, stages[len(stages)-1])
}

func TestProcessJobTimeoutKeepsPartialResults(t *testing.T) {
	var f *fixture
	a := &fakeAdapter{
		name:  "directory",
		batch: []leads.Lead{{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"}},
		hook: func() {
			f.clock.Advance(3 * time.Minute)
		},
	}
	sub := submission(10, "aaa", "bbb", "ccc")
	f = newFixture(t, Config{JobTimeout: 5 * time.Minute}, a)
	createJob(t, f, sub)

	f.worker.processJob(context.Background(), sub)

	job, err := f.jobStore.Get(context.Background(), sub.JobID)
	require.NoError(t, err)
	require.Equal(t, leads.JobStatusCompleted, job.Status, "timeout completes with partials, not failure")
	require.Equal(t, 100, job.Progress)
	require.Len(t, job.Records, 2, "third query never ran")
	require.Equal(t, 2, a.Calls())
}

func TestWorkerRunDrainsQueue(t *testing.T) {
	a := &fakeAdapter{name: "directory", batch: []leads.Lead{
		{FullName: "Jane Doe", CompanyName: "Acme Realty LLC", Source: "directory"},
	}}
	sub := submission(10, "aaa")
	f := newFixture(t, Config{}, a)
	createJob(t, f, sub)

	q := queuememory.NewQueue(1)
	f.worker.queue = q
	require.NoError(t, q.Enqueue(context.Background(), sub))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		job, err := f.jobStore.Get(context.Background(), sub.JobID)
		return err == nil && job.Status == leads.JobStatusCompleted
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestDispatcherEnqueueRejectsWhenFull(t *testing.T) {
	q := queuememory.NewQueue(1)
	d := NewDispatcher(q, nil)

	require.NoError(t, d.Enqueue(context.Background(), leads.Submission{JobID: "a"}))
	err := d.Enqueue(context.Background(), leads.Submission{JobID: "b"})
	require.ErrorIs(t, err, leads.ErrTooManyJobs)
}
