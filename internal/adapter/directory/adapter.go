// Package directory adapts a structured business directory into a lead
// source. Unlike the search index, listing pages carry stable markup, so the
// parse walks the DOM instead of pattern-matching raw HTML.
package directory

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/extract"
	"github.com/mwhitlock/leadforge/internal/leads"
)

const sourceName = "directory"

// Config holds the per-deployment knobs for the directory source.
type Config struct {
	// Endpoint is the listing search URL queried with a query parameter.
	Endpoint string
	// MaxResults caps leads taken from a single listing page.
	MaxResults int
}

// Adapter implements leads.SourceAdapter over a business directory.
type Adapter struct {
	fetcher leads.Fetcher
	clock   leads.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs the directory adapter.
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

// Fetch loads a listing page for query and parses one lead per listing card.
func (a *Adapter) Fetch(ctx context.Context, query string) ([]leads.Lead, error) {
	pageURL := fmt.Sprintf("%s?query=%s", a.cfg.Endpoint, url.QueryEscape(query))
	body, err := a.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("directory fetch %q: %w", query, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("directory parse %q: %w", query, err)
	}

	now := a.clock.Now()
	var out []leads.Lead
	doc.Find(".listing, .business-card, [itemtype$='LocalBusiness']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(out) >= a.cfg.MaxResults {
			return false
		}
		lead := leads.Lead{
			CompanyName: text(s, ".business-name, .name, h2, h3"),
			FullName:    text(s, ".contact-name, .owner"),
			Phone:       text(s, ".phone, [itemprop=telephone]"),
			Email:       extract.Email(text(s, ".email, [itemprop=email]")),
			Location:    text(s, ".address, .locality, [itemprop=address]"),
			Website:     href(s, "a.website, a[itemprop=url]"),
			SourceURL:   pageURL,
			Source:      sourceName,
			SearchTerm:  query,
			ScrapedAt:   now,
		}
		if lead.Phone == "" {
			lead.Phone = extract.Phone(s.Text())
		}
		if !lead.HasIdentity() {
			return true
		}
		out = append(out, lead)
		return true
	})

	a.logger.Debug("directory query done",
		zap.String("query", query),
		zap.Int("leads", len(out)),
	)
	return out, nil
}

func text(s *goquery.Selection, selector string) string {
	return strings.TrimSpace(s.Find(selector).First().Text())
}

func href(s *goquery.Selection, selector string) string {
	v, _ := s.Find(selector).First().Attr("href")
	return strings.TrimSpace(v)
}
