// Package searchindex adapts a web search index into a lead source. Result
// pages are fetched as raw HTML and mined with the shared regex heuristics;
// there is no stable markup to anchor a structured parse on.
package searchindex

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/extract"
	"github.com/mwhitlock/leadforge/internal/leads"
)

const sourceName = "search_index"

// headingRe anchors each result on the heading link every index variant
// emits. The snippet is the page text between one heading and the next, so
// matching must not consume any part of the following heading.
var (
	headingRe = regexp.MustCompile(`(?s)<h[23][^>]*>\s*<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>\s*</h[23]>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
)

// Config holds the per-deployment knobs for the search index source.
type Config struct {
	// Endpoint is the search URL queried with a q parameter.
	Endpoint string
	// MaxResults caps leads taken from a single results page.
	MaxResults int
}

// Adapter implements leads.SourceAdapter over a search index endpoint.
type Adapter struct {
	fetcher leads.Fetcher
	clock   leads.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs the search index adapter.
func New(fetcher leads.Fetcher, clock leads.Clock, cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	return &Adapter{fetcher: fetcher, clock: clock, cfg: cfg, logger: logger}
}

// Name reports the source identity stamped on every lead.
func (a *Adapter) Name() string { return sourceName }

// Fetch queries the index and extracts one candidate lead per result block.
// Blocks yielding neither a person nor a company are discarded.
func (a *Adapter) Fetch(ctx context.Context, query string) ([]leads.Lead, error) {
	pageURL := fmt.Sprintf("%s?q=%s", a.cfg.Endpoint, url.QueryEscape(query))
	body, err := a.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("search index fetch %q: %w", query, err)
	}

	now := a.clock.Now()
	page := string(body)
	headings := headingRe.FindAllStringSubmatchIndex(page, -1)
	var out []leads.Lead
	for i, m := range headings {
		if len(out) >= a.cfg.MaxResults {
			break
		}
		href := page[m[2]:m[3]]
		title := stripTags(page[m[4]:m[5]])
		end := len(page)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		snippet := stripTags(page[m[1]:end])

		// Titles are dominated by company names, which the person-name
		// pattern cannot tell apart; only snippets are mined for people.
		lead := leads.Lead{
			FullName:    extract.PersonName(snippet),
			CompanyName: firstNonEmpty(extract.CompanyName(title), extract.CompanyName(snippet)),
			Website:     href,
			SourceURL:   pageURL,
			Email:       extract.Email(snippet),
			Phone:       extract.Phone(snippet),
			Source:      sourceName,
			SearchTerm:  query,
			ScrapedAt:   now,
		}
		if !lead.HasIdentity() {
			continue
		}
		out = append(out, lead)
	}

	a.logger.Debug("search index query done",
		zap.String("query", query),
		zap.Int("leads", len(out)),
	)
	return out, nil
}

func stripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(s, " ")))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
