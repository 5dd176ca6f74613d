// Package profile adapts a professional profile site into a lead source.
// A query resolves to a list of profile links; each profile page is fetched
// and parsed individually, so this source is the slowest but the richest,
// often carrying titles and social links the other sources lack.
package profile

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

const sourceName = "profile"

// Config holds the per-deployment knobs for the profile source.
type Config struct {
	// Endpoint is the profile search URL queried with a q parameter.
	Endpoint string
	// MaxProfiles caps how many profile pages one query may visit.
	MaxProfiles int
}

// Adapter implements leads.SourceAdapter over a profile site.
type Adapter struct {
	fetcher leads.Fetcher
	clock   leads.Clock
	cfg     Config
	logger  *zap.Logger
}

// New constructs the profile adapter.
func New(fetcher leads.Fetcher, clock leads.Clock, cfg Config, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxProfiles <= 0 {
		cfg.MaxProfiles = 10
	}
	return &Adapter{fetcher: fetcher, clock: clock, cfg: cfg, logger: logger}
}

// Name reports the source identity stamped on every lead.
func (a *Adapter) Name() string { return sourceName }

// Fetch resolves query to profile links and parses each linked page. A
// single unreadable profile is skipped; only a failed link resolution fails
// the whole query.
func (a *Adapter) Fetch(ctx context.Context, query string) ([]leads.Lead, error) {
	searchURL := fmt.Sprintf("%s?q=%s", a.cfg.Endpoint, url.QueryEscape(query))
	body, err := a.fetcher.FetchPage(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("profile search %q: %w", query, err)
	}

	links, err := a.profileLinks(body, searchURL)
	if err != nil {
		return nil, fmt.Errorf("profile search parse %q: %w", query, err)
	}

	var out []leads.Lead
	for _, link := range links {
		lead, err := a.fetchProfile(ctx, link, query)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			a.logger.Debug("profile page skipped",
				zap.String("url", link),
				zap.Error(err),
			)
			continue
		}
		if !lead.HasIdentity() {
			continue
		}
		out = append(out, lead)
	}

	a.logger.Debug("profile query done",
		zap.String("query", query),
		zap.Int("visited", len(links)),
		zap.Int("leads", len(out)),
	)
	return out, nil
}

func (a *Adapter) profileLinks(body []byte, base string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, err
	}

	var links []string
	doc.Find("a.profile-link, a[href*='/profile/']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(links) >= a.cfg.MaxProfiles {
			return false
		}
		raw, ok := s.Attr("href")
		if !ok {
			return true
		}
		ref, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return true
		}
		links = append(links, baseURL.ResolveReference(ref).String())
		return true
	})
	return links, nil
}

func (a *Adapter) fetchProfile(ctx context.Context, pageURL, query string) (leads.Lead, error) {
	body, err := a.fetcher.FetchPage(ctx, pageURL)
	if err != nil {
		return leads.Lead{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return leads.Lead{}, err
	}

	lead := leads.Lead{
		FullName:    text(doc, ".profile-name, h1"),
		JobTitle:    text(doc, ".profile-title, .headline"),
		CompanyName: text(doc, ".profile-company, .company"),
		Location:    text(doc, ".profile-location, .location"),
		Email:       extract.Email(text(doc, ".profile-email, [itemprop=email]")),
		Phone:       extract.Phone(doc.Text()),
		LinkedInURL: socialHref(doc, "linkedin.com"),
		TwitterURL:  socialHref(doc, "twitter.com"),
		Website:     href(doc, "a.profile-website"),
		SourceURL:   pageURL,
		Source:      sourceName,
		SearchTerm:  query,
		ScrapedAt:   a.clock.Now(),
	}
	if lead.Email == "" {
		lead.Email = extract.Email(doc.Text())
	}
	return lead, nil
}

func text(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func href(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("href")
	return strings.TrimSpace(v)
}

func socialHref(doc *goquery.Document, host string) string {
	return href(doc, fmt.Sprintf("a[href*='%s']", host))
}
