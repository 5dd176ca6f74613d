package sinks

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mwhitlock/leadforge/internal/progress"
)

// PrometheusSink exports scraping progress metrics. It owns all collectors
// for jobs started/completed/running, job runtime, and per-source lead and
// query counters.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    *prometheus.HistogramVec

	queriesDone   prometheus.Counter
	queryDuration prometheus.Histogram
	leadsRetained *prometheus.CounterVec

	tracker *jobTracker
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_progress_jobs_started_total",
			Help: "Total scraping jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_progress_jobs_completed_total",
			Help: "Total scraping jobs completed partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "leadgen_progress_jobs_running",
			Help: "Current number of running scraping jobs.",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadgen_progress_job_runtime_seconds",
			Help:    "Wall time per completed scraping job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"result"}),
		queriesDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "leadgen_progress_queries_total",
			Help: "Expanded queries completed across all jobs.",
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadgen_progress_query_duration_seconds",
			Help:    "Per-query fan-out duration.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		leadsRetained: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leadgen_progress_leads_retained_total",
			Help: "Leads retained after dedup, partitioned by source.",
		}, []string{"source"}),
		tracker: newJobTracker(),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.queriesDone,
		s.queryDuration,
		s.leadsRetained,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch. It is safe for
// concurrent use by multiple goroutines.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageJobStart:
		s.jobsStarted.Inc()
		if s.tracker.start(evt.JobID) {
			s.jobsRunning.Inc()
		}
	case progress.StageJobDone:
		s.jobsCompleted.WithLabelValues("success").Inc()
		s.observeRuntime(evt, "success")
		s.finish(evt.JobID)
	case progress.StageJobError:
		s.jobsCompleted.WithLabelValues("error").Inc()
		s.observeRuntime(evt, "error")
		s.finish(evt.JobID)
	case progress.StageQueryDone:
		s.queriesDone.Inc()
		if evt.Dur > 0 {
			s.queryDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageAdapterDone:
		if evt.Leads > 0 {
			s.leadsRetained.WithLabelValues(evt.Source).Add(float64(evt.Leads))
		}
	}
}

func (s *PrometheusSink) observeRuntime(evt progress.Event, label string) {
	if evt.Dur > 0 {
		s.jobRuntime.WithLabelValues(label).Observe(evt.Dur.Seconds())
	}
}

func (s *PrometheusSink) finish(jobID string) {
	if s.tracker.complete(jobID) {
		s.jobsRunning.Dec()
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// jobTracker dedupes lifecycle events so the running gauge stays correct
// even when a job emits more than one terminal event.
type jobTracker struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func newJobTracker() *jobTracker {
	return &jobTracker{running: make(map[string]struct{})}
}

func (t *jobTracker) start(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; ok {
		return false
	}
	t.running[id] = struct{}{}
	return true
}

func (t *jobTracker) complete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.running[id]; !ok {
		return false
	}
	delete(t.running, id)
	return true
}
