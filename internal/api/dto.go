package api

import (
	"time"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// scrapeRequest is the inbound submission shape. Clients have historically
// sent the same dimensions under several names (industry vs industries,
// countries/states vs locations); all spellings are accepted and folded.
type scrapeRequest struct {
	Industry     []string `json:"industry"`
	Industries   []string `json:"industries"`
	Locations    []string `json:"locations"`
	Countries    []string `json:"countries"`
	States       []string `json:"states"`
	Titles       []string `json:"titles"`
	CompanySizes []string `json:"companySizes"`
	EmployeeMin  int      `json:"employeeMin"`
	EmployeeMax  int      `json:"employeeMax"`
	RevenueMin   int64    `json:"revenueMin"`
	RevenueMax   int64    `json:"revenueMax"`
	MaxLeads     int      `json:"maxLeads"`
}

func (r scrapeRequest) toFilterSet() leads.FilterSet {
	industries := appendNonEmpty(nil, r.Industry...)
	industries = appendNonEmpty(industries, r.Industries...)
	locations := appendNonEmpty(nil, r.Locations...)
	locations = appendNonEmpty(locations, r.Countries...)
	locations = appendNonEmpty(locations, r.States...)

	return leads.FilterSet{
		Industries:   industries,
		Locations:    locations,
		Titles:       appendNonEmpty(nil, r.Titles...),
		CompanySizes: appendNonEmpty(nil, r.CompanySizes...),
		EmployeeMin:  r.EmployeeMin,
		EmployeeMax:  r.EmployeeMax,
		RevenueMin:   r.RevenueMin,
		RevenueMax:   r.RevenueMax,
	}
}

func appendNonEmpty(dst []string, vals ...string) []string {
	for _, v := range vals {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

// leadResponse is the outbound lead shape. Absent optional fields serialize
// as null rather than empty strings.
type leadResponse struct {
	FullName         string    `json:"fullName"`
	CompanyName      string    `json:"companyName"`
	Website          *string   `json:"website"`
	SourceURL        string    `json:"sourceUrl"`
	Email            *string   `json:"email"`
	Phone            *string   `json:"phone"`
	LinkedInURL      *string   `json:"linkedinUrl"`
	TwitterURL       *string   `json:"twitterUrl"`
	JobTitle         *string   `json:"jobTitle"`
	Industry         *string   `json:"industry"`
	Location         *string   `json:"location"`
	Source           string    `json:"source"`
	SearchTerm       string    `json:"searchTerm"`
	ScrapedAt        time.Time `json:"scrapedAt"`
	LeadScore        int       `json:"leadScore"`
	EnrichmentStatus string    `json:"enrichmentStatus"`
}

func toLeadResponse(l leads.Lead) leadResponse {
	return leadResponse{
		FullName:         l.FullName,
		CompanyName:      l.CompanyName,
		Website:          nullable(l.Website),
		SourceURL:        l.SourceURL,
		Email:            nullable(l.Email),
		Phone:            nullable(l.Phone),
		LinkedInURL:      nullable(l.LinkedInURL),
		TwitterURL:       nullable(l.TwitterURL),
		JobTitle:         nullable(l.JobTitle),
		Industry:         nullable(l.Industry),
		Location:         nullable(l.Location),
		Source:           l.Source,
		SearchTerm:       l.SearchTerm,
		ScrapedAt:        l.ScrapedAt,
		LeadScore:        l.LeadScore,
		EnrichmentStatus: string(l.EnrichmentStatus),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// jobResponse is the polling snapshot returned by the status endpoints.
type jobResponse struct {
	JobID      string          `json:"jobId"`
	Status     string          `json:"status"`
	Progress   int             `json:"progress"`
	Error      *string         `json:"error,omitempty"`
	Submitted  time.Time       `json:"submittedAt"`
	Started    *time.Time      `json:"startedAt,omitempty"`
	Completed  *time.Time      `json:"completedAt,omitempty"`
	Filters    leads.FilterSet `json:"filters"`
	MaxLeads   int             `json:"maxLeads"`
	TotalLeads int             `json:"totalLeads"`
	Leads      []leadResponse  `json:"leads"`
}

func toJobResponse(job leads.Job) jobResponse {
	records := make([]leadResponse, 0, len(job.Records))
	for _, l := range job.Records {
		records = append(records, toLeadResponse(l))
	}
	return jobResponse{
		JobID:      job.ID,
		Status:     string(job.Status),
		Progress:   job.Progress,
		Error:      nullable(job.ErrorText),
		Submitted:  job.Submitted,
		Started:    job.Started,
		Completed:  job.Completed,
		Filters:    job.Filters,
		MaxLeads:   job.MaxLeads,
		TotalLeads: len(records),
		Leads:      records,
	}
}
