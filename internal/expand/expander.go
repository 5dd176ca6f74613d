// Package expand converts a filter set into a bounded, deduplicated ordered
// list of search-query strings for source-adapter fan-out.
package expand

import (
	"strings"

	"github.com/mwhitlock/leadforge/internal/leads"
)

// MaxQueries bounds adapter fan-out cost per job.
const MaxQueries = 20

// Queries expands each (industry, location, title) combination through the
// synonym/variant/expansion tables, templates the cross product into query
// strings, deduplicates by exact match, and truncates to MaxQueries. It is a
// pure function of the filter set and the static tables.
func Queries(f leads.FilterSet) []string {
	industries := expandDimension(f.Industries, industrySynonyms)
	locations := expandDimension(f.Locations, locationVariants)
	titles := expandDimension(f.Titles, titleExpansions)

	seen := make(map[string]struct{})
	var out []string
	add := func(parts ...string) {
		q := joinNonEmpty(parts)
		if q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	for _, industry := range industries {
		for _, location := range locations {
			for _, title := range titles {
				if len(out) >= MaxQueries {
					return out[:MaxQueries]
				}
				add(industry, title, location)
				if industry != "" {
					add(industry, "companies", location)
				}
			}
		}
	}
	if len(out) > MaxQueries {
		out = out[:MaxQueries]
	}
	return out
}

// TitleTerms returns the expanded title vocabulary for a filter set, used by
// the scoring stage to test textual title matches.
func TitleTerms(f leads.FilterSet) []string {
	return expandedOrNil(f.Titles, titleExpansions)
}

// expandDimension maps each filter value through its table, preserving input
// order. An absent dimension yields a single empty placeholder so it is
// omitted from templating rather than treated as a wildcard.
func expandDimension(values []string, table map[string][]string) []string {
	expanded := expandedOrNil(values, table)
	if len(expanded) == 0 {
		return []string{""}
	}
	return expanded
}

func expandedOrNil(values []string, table map[string][]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range values {
		terms, ok := table[strings.ToLower(strings.TrimSpace(v))]
		if !ok {
			terms = []string{v}
		}
		for _, term := range terms {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
