// Package enrich fills missing email addresses on retained leads, first by
// direct extraction from a linked page, then by deterministic pattern
// guessing. It never invents a phone or name, and it never fails a job: any
// fetch or parse problem marks that one record failed and moves on.
package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/extract"
	"github.com/mwhitlock/leadforge/internal/leads"
	"github.com/mwhitlock/leadforge/internal/metrics"
)

// Config controls enrichment behavior.
type Config struct {
	// FetchTimeout bounds each direct-extraction page fetch.
	FetchTimeout time.Duration
}

// Enricher runs the enrichment stage over merged batches.
type Enricher struct {
	fetcher leads.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New constructs an Enricher. fetcher may be nil, in which case direct
// extraction is skipped and only pattern guessing applies.
func New(fetcher leads.Fetcher, cfg Config, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	return &Enricher{fetcher: fetcher, cfg: cfg, logger: logger}
}

// Enrich mutates the batch in place, populating Email and EnrichmentStatus
// for every record lacking an email.
func (e *Enricher) Enrich(ctx context.Context, batch []leads.Lead) {
	for i := range batch {
		e.enrichOne(ctx, &batch[i])
		metrics.ObserveEnrichment(string(batch[i].EnrichmentStatus))
	}
}

func (e *Enricher) enrichOne(ctx context.Context, l *leads.Lead) {
	if l.Email != "" {
		// The adapter already extracted an address.
		l.EnrichmentStatus = leads.EnrichmentCompleted
		return
	}

	if email := e.extractDirect(ctx, l); email != "" {
		l.Email = email
		l.EnrichmentStatus = leads.EnrichmentCompleted
		return
	}

	if email := patternGuess(l); email != "" {
		l.Email = email
		l.EnrichmentStatus = leads.EnrichmentPatternGuessed
		return
	}

	l.EnrichmentStatus = leads.EnrichmentFailed
}

// extractDirect fetches the lead's website (or source page) and applies the
// email pattern to the body. Errors are logged and treated as no result.
func (e *Enricher) extractDirect(ctx context.Context, l *leads.Lead) string {
	if e.fetcher == nil {
		return ""
	}
	url := l.Website
	if url == "" {
		url = l.SourceURL
	}
	if url == "" {
		return ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.FetchTimeout)
	defer cancel()

	body, err := e.fetcher.FetchPage(fetchCtx, url)
	if err != nil {
		e.logger.Debug("enrichment fetch failed",
			zap.String("company", l.CompanyName),
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}
	return extract.Email(string(body))
}

// patternGuess builds firstname.lastname@domain from the first and last
// tokens of the full name and a domain derived from the website or company
// name. Returns "" when either part is missing.
func patternGuess(l *leads.Lead) string {
	domain := extract.Domain(l.Website, l.CompanyName)
	if domain == "" {
		return ""
	}
	parts := strings.Fields(strings.ToLower(l.FullName))
	if len(parts) < 2 {
		return ""
	}
	return fmt.Sprintf("%s.%s@%s", parts[0], parts[len(parts)-1], domain)
}
