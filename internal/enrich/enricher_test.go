package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwhitlock/leadforge/internal/leads"
)

type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func TestEnrichDirectExtraction(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`<p>Reach us at info@acmerealty.com today.</p>`)}
	e := New(fetcher, Config{}, zap.NewNop())

	batch := []leads.Lead{{
		FullName:    "Jane Doe",
		CompanyName: "Acme Realty LLC",
		Website:     "https://acmerealty.com",
	}}
	e.Enrich(context.Background(), batch)

	require.Equal(t, "info@acmerealty.com", batch[0].Email)
	require.Equal(t, leads.EnrichmentCompleted, batch[0].EnrichmentStatus)
	require.Equal(t, []string{"https://acmerealty.com"}, fetcher.urls)
}

func TestEnrichPatternGuessOnFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	e := New(fetcher, Config{}, zap.NewNop())

	batch := []leads.Lead{{
		FullName:    "Jane Doe",
		CompanyName: "Acme Realty LLC",
		Website:     "https://acmerealty.com",
	}}
	e.Enrich(context.Background(), batch)

	require.Equal(t, "jane.doe@acmerealty.com", batch[0].Email)
	require.Equal(t, leads.EnrichmentPatternGuessed, batch[0].EnrichmentStatus)
}

func TestEnrichPatternGuessDomainFromCompanyName(t *testing.T) {
	e := New(nil, Config{}, zap.NewNop())

	batch := []leads.Lead{{
		FullName:    "John Smith",
		CompanyName: "Sunrise Realty Group LLC",
	}}
	e.Enrich(context.Background(), batch)

	require.Equal(t, "john.smith@sunriserealty.com", batch[0].Email)
	require.Equal(t, leads.EnrichmentPatternGuessed, batch[0].EnrichmentStatus)
}

func TestEnrichExistingEmailPreserved(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte("other@example.com")}
	e := New(fetcher, Config{}, zap.NewNop())

	batch := []leads.Lead{{
		FullName: "Jane Doe",
		Email:    "jane@acme.com",
	}}
	e.Enrich(context.Background(), batch)

	require.Equal(t, "jane@acme.com", batch[0].Email)
	require.Equal(t, leads.EnrichmentCompleted, batch[0].EnrichmentStatus)
	require.Empty(t, fetcher.urls, "no fetch expected when email already present")
}

func TestEnrichFailedWhenNothingToGuessFrom(t *testing.T) {
	e := New(nil, Config{}, zap.NewNop())

	tests := []struct {
		name string
		lead leads.Lead
	}{
		{"single name token", leads.Lead{FullName: "Cher", CompanyName: "Acme Realty LLC"}},
		{"no name", leads.Lead{CompanyName: "Acme Realty LLC"}},
		{"no domain source", leads.Lead{FullName: "Jane Doe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := []leads.Lead{tt.lead}
			e.Enrich(context.Background(), batch)
			require.Empty(t, batch[0].Email)
			require.Equal(t, leads.EnrichmentFailed, batch[0].EnrichmentStatus)
		})
	}
}

func TestEnrichNeverPanicsOnMixedBatch(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	e := New(fetcher, Config{}, zap.NewNop())

	batch := []leads.Lead{
		{},
		{FullName: "Jane Doe", Website: "https://acme.example"},
		{Email: "kept@example.com"},
	}
	e.Enrich(context.Background(), batch)

	require.Equal(t, leads.EnrichmentFailed, batch[0].EnrichmentStatus)
	require.Equal(t, "jane.doe@acme.example", batch[1].Email)
	require.Equal(t, leads.EnrichmentCompleted, batch[2].EnrichmentStatus)
}
