package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// Dispatcher fans submissions out to a pool of workers. Pool size is the
// concurrency ceiling: at most len(workers) jobs run at once, and submissions
// beyond the queue capacity are rejected at enqueue time.
type Dispatcher struct {
	queue   leads.Queue
	workers []*Worker
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(queue leads.Queue, workers []*Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		workers: workers,
	}
}

// Run starts all workers and blocks until the context finishes.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	<-ctx.Done()
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, sub leads.Submission) error {
	if err := d.queue.Enqueue(ctx, sub); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}
