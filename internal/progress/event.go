// Package progress defines the milestone events emitted by scraping workers
// and the hub that batches them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageJobStart    Stage = "JOB_START"
	StageQueryDone   Stage = "QUERY_DONE"
	StageAdapterDone Stage = "ADAPTER_DONE"
	StageJobDone     Stage = "JOB_DONE"
	StageJobError    Stage = "JOB_ERROR"
)

// Event captures a single milestone of a scraping job.
type Event struct {
	// JobID identifies the job run.
	JobID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Source scopes adapter events to a source name.
	Source string
	// Query is the expanded search query an event relates to.
	Query string
	// Leads is the number of retained leads the milestone contributed.
	Leads int
	// Progress is the job's percent complete at emission time.
	Progress int
	// Dur captures execution latency for queries and job completions.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == "" {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageJobDone, StageJobError:
	case StageQueryDone:
		if e.Query == "" {
			return errors.New("query done requires query")
		}
	case StageAdapterDone:
		if e.Source == "" {
			return errors.New("adapter done requires source")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	if e.Progress < 0 || e.Progress > 100 {
		return fmt.Errorf("progress %d out of range", e.Progress)
	}
	return nil
}
