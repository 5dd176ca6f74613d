package leads

import "errors"

// Sentinel errors surfaced at the API boundary. Everything else is absorbed
// inside the job lifecycle and reflected only through status/error fields.
var (
	// ErrEmptyFilter rejects submissions with no populated filter dimension.
	ErrEmptyFilter = errors.New("at least one filter must be set")
	// ErrInvalidRange rejects numeric ranges where min exceeds max.
	ErrInvalidRange = errors.New("filter range minimum exceeds maximum")
	// ErrJobNotFound signals an unknown or evicted job id.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobExists guards against duplicate job ids in the store.
	ErrJobExists = errors.New("job already exists")
	// ErrTooManyJobs signals that the submission queue is at capacity.
	ErrTooManyJobs = errors.New("too many concurrent jobs")
)
