// Package memory provides the bounded in-process submission queue.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// Queue is a bounded in-memory queue with context-aware dequeue. Enqueue is
// non-blocking: a full queue rejects the submission so the API can tell the
// caller to retry later instead of stalling the request.
type Queue struct {
	ch      chan leads.Submission
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan leads.Submission, capacity)}
}

// Enqueue pushes a submission or fails immediately when the queue is full.
func (q *Queue) Enqueue(ctx context.Context, sub leads.Submission) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- sub:
		return nil
	default:
		return leads.ErrTooManyJobs
	}
}

// Dequeue pops the next submission, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (leads.Submission, error) {
	select {
	case <-ctx.Done():
		return leads.Submission{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case sub, ok := <-q.ch:
		if !ok {
			return leads.Submission{}, errors.New("queue closed")
		}
		return sub, nil
	}
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
