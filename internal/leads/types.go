// Package leads defines core types shared across subsystems.
package leads

import (
	"strings"
	"time"
)

// JobStatus represents the lifecycle state of a scraping job.
type JobStatus string

// Job status values persisted in the job store.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether the status admits no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// EnrichmentStatus tracks the outcome of the email enrichment stage.
type EnrichmentStatus string

// Enrichment status values recorded per lead.
const (
	EnrichmentPending        EnrichmentStatus = "pending"
	EnrichmentCompleted      EnrichmentStatus = "completed"
	EnrichmentPatternGuessed EnrichmentStatus = "pattern_guessed"
	EnrichmentFailed         EnrichmentStatus = "failed"
)

// FilterSet captures the targeting criteria submitted with a job. It is
// constructed once from the inbound request and never mutated afterwards.
type FilterSet struct {
	Industries   []string `json:"industries"`
	Locations    []string `json:"locations"`
	Titles       []string `json:"titles"`
	CompanySizes []string `json:"companySizes"`
	EmployeeMin  int      `json:"employeeMin"`
	EmployeeMax  int      `json:"employeeMax"`
	RevenueMin   int64    `json:"revenueMin"`
	RevenueMax   int64    `json:"revenueMax"`
}

// Validate enforces the submission invariants: at least one list dimension
// populated and well-ordered numeric ranges.
func (f FilterSet) Validate() error {
	if len(f.Industries) == 0 && len(f.Locations) == 0 && len(f.Titles) == 0 && len(f.CompanySizes) == 0 {
		return ErrEmptyFilter
	}
	if f.EmployeeMax != 0 && f.EmployeeMin > f.EmployeeMax {
		return ErrInvalidRange
	}
	if f.RevenueMax != 0 && f.RevenueMin > f.RevenueMax {
		return ErrInvalidRange
	}
	return nil
}

// Lead is one prospective contact/company record extracted by a source
// adapter, enriched and scored before it reaches the job's record list.
type Lead struct {
	FullName         string           `json:"fullName"`
	CompanyName      string           `json:"companyName"`
	Website          string           `json:"website,omitempty"`
	SourceURL        string           `json:"sourceUrl"`
	Email            string           `json:"email,omitempty"`
	Phone            string           `json:"phone,omitempty"`
	LinkedInURL      string           `json:"linkedinUrl,omitempty"`
	TwitterURL       string           `json:"twitterUrl,omitempty"`
	JobTitle         string           `json:"jobTitle,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	Location         string           `json:"location,omitempty"`
	Source           string           `json:"source"`
	SearchTerm       string           `json:"searchTerm"`
	ScrapedAt        time.Time        `json:"scrapedAt"`
	LeadScore        int              `json:"leadScore"`
	EnrichmentStatus EnrichmentStatus `json:"enrichmentStatus"`
}

// HasIdentity reports whether the lead carries enough identity signal to be
// retained. Records failing this are dropped silently at extraction time.
func (l Lead) HasIdentity() bool {
	return l.CompanyName != "" || l.FullName != ""
}

// IdentityKey returns the normalized dedup key: (fullName, companyName) when a
// person name is present, otherwise (companyName, source).
func (l Lead) IdentityKey() string {
	if l.FullName != "" {
		return strings.ToLower(l.FullName) + "|" + strings.ToLower(l.CompanyName)
	}
	return strings.ToLower(l.CompanyName) + "|" + strings.ToLower(l.Source)
}

// Job represents one scraping request's lifecycle and accumulated output.
// It is mutated exclusively through the job store by the single driving task
// that owns it.
type Job struct {
	ID        string     `json:"jobId"`
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Records   []Lead     `json:"records"`
	ErrorText string     `json:"error,omitempty"`
	Submitted time.Time  `json:"submittedAt"`
	Started   *time.Time `json:"startedAt,omitempty"`
	Completed *time.Time `json:"completedAt,omitempty"`
	Filters   FilterSet  `json:"filters"`
	MaxLeads  int        `json:"maxLeads"`
}

// Submission wraps a validated job ready for a driving task to pick up.
type Submission struct {
	JobID     string
	Filters   FilterSet
	MaxLeads  int
	Submitted int64
}
