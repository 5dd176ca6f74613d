package leads

import (
	"context"
	"time"
)

// SourceAdapter executes one query against one logical external source and
// returns extracted leads, or fails. Implementations must honor the context
// deadline and never block indefinitely.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, query string) ([]Lead, error)
}

// JobStore persists job state keyed by job id. Implementations must support
// safe concurrent access to distinct jobs.
type JobStore interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, jobID string) (Job, error)
	UpdateStatus(ctx context.Context, jobID string, status JobStatus, errText string) error
	AppendRecords(ctx context.Context, jobID string, batch []Lead, progress int) error
	RequestCancel(ctx context.Context, jobID string) error
	CancelRequested(ctx context.Context, jobID string) (bool, error)
}

// LeadQuery narrows and pages a persisted-lead listing.
type LeadQuery struct {
	Industry string
	Location string
	Limit    int
	Offset   int
}

// LeadStore persists completed-job records into the durable lead collection.
type LeadStore interface {
	SaveLeads(ctx context.Context, batch []Lead) (int, error)
	ListLeads(ctx context.Context, q LeadQuery) ([]Lead, error)
}

// Fetcher retrieves a single page body within a bounded timeout. Adapters and
// the enrichment stage share one implementation so pacing policy is applied
// uniformly.
type Fetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// Publisher pushes job completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for job submissions.
type Queue interface {
	Enqueue(ctx context.Context, sub Submission) error
	Dequeue(ctx context.Context) (Submission, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
