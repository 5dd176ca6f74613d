package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mwhitlock/leadforge/internal/leads"
)

func TestQueueEnqueueDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), leads.Submission{JobID: "job-1"}))

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Equal(t, "job-1", got.JobID)
}

func TestQueueFullRejectsSubmission(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), leads.Submission{JobID: "job-1"}))
	require.ErrorIs(t, q.Enqueue(context.Background(), leads.Submission{JobID: "job-2"}), leads.ErrTooManyJobs)

	// Draining frees capacity again.
	_, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), leads.Submission{JobID: "job-2"}))
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueCloseUnblocksDequeue(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()
	q.Close() // idempotent

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not return after close")
	}
}
