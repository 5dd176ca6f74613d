package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// routedFetcher serves canned bodies per URL so the two-hop flow can be
// exercised without a network.
type routedFetcher struct {
	pages map[string][]byte
	errs  map[string]error
	urls  []string
}

func (f *routedFetcher) FetchPage(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	body, ok := f.pages[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return body, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

const searchPage = `
<html><body>
<a class="profile-link" href="/profile/jane-doe">Jane Doe</a>
<a class="profile-link" href="/profile/john-smith">John Smith</a>
<a href="/about">About us</a>
</body></html>`

const janePage = `
<html><body>
<h1 class="profile-name">Jane Doe</h1>
<div class="profile-title">Broker</div>
<div class="profile-company">Acme Realty LLC</div>
<div class="profile-location">Miami, FL</div>
<span class="profile-email">jane@acmerealty.com</span>
<a href="https://linkedin.com/in/janedoe">LinkedIn</a>
<a href="https://twitter.com/janedoe">Twitter</a>
</body></html>`

func TestFetchFollowsProfileLinks(t *testing.T) {
	fetcher := &routedFetcher{
		pages: map[string][]byte{
			"https://profiles.example/search?q=realtor+miami": []byte(searchPage),
			"https://profiles.example/profile/jane-doe":       []byte(janePage),
		},
		errs: map[string]error{
			"https://profiles.example/profile/john-smith": errors.New("503"),
		},
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := New(fetcher, fixedClock{now}, Config{Endpoint: "https://profiles.example/search"}, zap.NewNop())

	got, err := a.Fetch(context.Background(), "realtor miami")
	require.NoError(t, err, "one broken profile must not fail the query")
	require.Len(t, got, 1)

	lead := got[0]
	require.Equal(t, "Jane Doe", lead.FullName)
	require.Equal(t, "Broker", lead.JobTitle)
	require.Equal(t, "Acme Realty LLC", lead.CompanyName)
	require.Equal(t, "Miami, FL", lead.Location)
	require.Equal(t, "jane@acmerealty.com", lead.Email)
	require.Equal(t, "https://linkedin.com/in/janedoe", lead.LinkedInURL)
	require.Equal(t, "https://twitter.com/janedoe", lead.TwitterURL)
	require.Equal(t, "https://profiles.example/profile/jane-doe", lead.SourceURL)
	require.Equal(t, "profile", lead.Source)
	require.Equal(t, now, lead.ScrapedAt)
}

func TestFetchMaxProfiles(t *testing.T) {
	fetcher := &routedFetcher{
		pages: map[string][]byte{
			"https://profiles.example/search?q=realtor+miami": []byte(searchPage),
			"https://profiles.example/profile/jane-doe":       []byte(janePage),
			"https://profiles.example/profile/john-smith":     []byte(janePage),
		},
	}
	a := New(fetcher, fixedClock{time.Now()}, Config{Endpoint: "https://profiles.example/search", MaxProfiles: 1}, zap.NewNop())

	got, err := a.Fetch(context.Background(), "realtor miami")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, fetcher.urls, 2, "search page plus one profile")
}

func TestFetchSearchErrorFailsQuery(t *testing.T) {
	fetcher := &routedFetcher{errs: map[string]error{
		"https://profiles.example/search?q=realtor+miami": errors.New("timeout"),
	}}
	a := New(fetcher, fixedClock{time.Now()}, Config{Endpoint: "https://profiles.example/search"}, zap.NewNop())

	_, err := a.Fetch(context.Background(), "realtor miami")
	require.Error(t, err)
}

func TestFetchStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &routedFetcher{
		pages: map[string][]byte{
			"https://profiles.example/search?q=realtor+miami": []byte(searchPage),
		},
	}
	a := New(fetcher, fixedClock{time.Now()}, Config{Endpoint: "https://profiles.example/search"}, zap.NewNop())

	cancelAfterSearch := &cancelingFetcher{inner: fetcher, cancel: cancel}
	a.fetcher = cancelAfterSearch

	got, err := a.Fetch(ctx, "realtor miami")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, got)
}

// cancelingFetcher cancels the context after serving the first page, so the
// profile loop observes a dead context.
type cancelingFetcher struct {
	inner  *routedFetcher
	cancel context.CancelFunc
	served bool
}

func (f *cancelingFetcher) FetchPage(ctx context.Context, url string) ([]byte, error) {
	if f.served {
		return nil, ctx.Err()
	}
	f.served = true
	body, err := f.inner.FetchPage(ctx, url)
	f.cancel()
	return body, err
}

func TestName(t *testing.T) {
	a := New(nil, fixedClock{time.Now()}, Config{}, nil)
	require.Equal(t, "profile", a.Name())
}
