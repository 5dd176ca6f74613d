// Package score computes lead quality scores from field completeness and
// filter-match strength. Scoring is deterministic and side-effect free so
// fixtures stay reproducible.
package score

import (
	"strings"

	"github.com/mwhitlock/leadforge/internal/expand"
	"github.com/mwhitlock/leadforge/internal/leads"
)

const base = 50

// Additive increments, clamped to [0,100] at the end. Enrichment via direct
// extraction outranks pattern guessing to reflect confidence.
const (
	industryBonus       = 20
	locationBonus       = 15
	titleBonus          = 20
	emailBonus          = 15
	phoneBonus          = 10
	linkedinBonus       = 10
	enrichedBonus       = 10
	patternGuessedBonus = 5
)

// Adapters ranked by historical signal quality.
var sourceBonus = map[string]int{
	"search_index": 5,
	"directory":    3,
	"profile":      2,
}

// Score maps a record and the job's filter set to an integer in [0,100].
func Score(l leads.Lead, f leads.FilterSet) int {
	s := base
	if matchesAny(l.Industry, f.Industries) {
		s += industryBonus
	}
	if matchesAny(l.Location, f.Locations) {
		s += locationBonus
	}
	if len(f.Titles) > 0 && matchesAny(l.JobTitle, expand.TitleTerms(f)) {
		s += titleBonus
	}
	if l.Email != "" {
		s += emailBonus
	}
	if l.Phone != "" {
		s += phoneBonus
	}
	if l.LinkedInURL != "" {
		s += linkedinBonus
	}
	switch l.EnrichmentStatus {
	case leads.EnrichmentCompleted:
		s += enrichedBonus
	case leads.EnrichmentPatternGuessed:
		s += patternGuessedBonus
	}
	s += sourceBonus[l.Source]

	if s > 100 {
		return 100
	}
	if s < 0 {
		return 0
	}
	return s
}

// matchesAny reports a case-insensitive substring match in either direction,
// so "Miami, FL" matches a "Miami" filter and vice versa.
func matchesAny(value string, terms []string) bool {
	if value == "" {
		return false
	}
	lower := strings.ToLower(value)
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		if strings.Contains(lower, t) || strings.Contains(t, lower) {
			return true
		}
	}
	return false
}
