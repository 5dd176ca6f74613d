package score

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwhitlock/leadforge/internal/leads"
)

func TestScore_AdditiveIncrements(t *testing.T) {
	t.Parallel()

	filters := leads.FilterSet{
		Industries: []string{"Real Estate"},
		Locations:  []string{"Florida"},
		Titles:     []string{"CEO"},
	}

	tests := []struct {
		name string
		lead leads.Lead
		want int
	}{
		{
			name: "bare identity only",
			lead: leads.Lead{CompanyName: "Acme Inc"},
			want: 50,
		},
		{
			name: "industry match",
			lead: leads.Lead{CompanyName: "Acme Inc", Industry: "Real Estate"},
			want: 70,
		},
		{
			name: "location match via city variant",
			lead: leads.Lead{CompanyName: "Acme Inc", Location: "Miami, Florida"},
			want: 65,
		},
		{
			name: "expanded title match",
			lead: leads.Lead{CompanyName: "Acme Inc", JobTitle: "Chief Executive Officer"},
			want: 70,
		},
		{
			name: "contact fields stack",
			lead: leads.Lead{
				CompanyName: "Acme Inc",
				Email:       "a@acme.com",
				Phone:       "305-555-0188",
				LinkedInURL: "https://linkedin.com/in/a",
			},
			want: 85,
		},
		{
			name: "everything clamps at 100",
			lead: leads.Lead{
				CompanyName:      "Acme Inc",
				Industry:         "Real Estate",
				Location:         "Tampa, FL",
				JobTitle:         "CEO",
				Email:            "a@acme.com",
				Phone:            "305-555-0188",
				LinkedInURL:      "https://linkedin.com/in/a",
				EnrichmentStatus: leads.EnrichmentCompleted,
				Source:           "search_index",
			},
			want: 100,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Score(tc.lead, filters))
		})
	}
}

func TestScore_EnrichmentConfidenceOrdering(t *testing.T) {
	t.Parallel()

	filters := leads.FilterSet{Industries: []string{"Legal"}}
	enriched := leads.Lead{CompanyName: "Acme Inc", EnrichmentStatus: leads.EnrichmentCompleted}
	guessed := leads.Lead{CompanyName: "Acme Inc", EnrichmentStatus: leads.EnrichmentPatternGuessed}
	failed := leads.Lead{CompanyName: "Acme Inc", EnrichmentStatus: leads.EnrichmentFailed}

	require.GreaterOrEqual(t, Score(enriched, filters)-Score(guessed, filters), 5)
	require.Greater(t, Score(guessed, filters), Score(failed, filters))
}

func TestScore_TitleBonusRequiresTitleFilter(t *testing.T) {
	t.Parallel()

	lead := leads.Lead{CompanyName: "Acme Inc", JobTitle: "CEO"}

	withFilter := Score(lead, leads.FilterSet{Titles: []string{"CEO"}})
	withoutFilter := Score(lead, leads.FilterSet{Industries: []string{"Legal"}})

	require.Equal(t, 70, withFilter)
	require.Equal(t, 50, withoutFilter)
}

func TestScore_DeterministicOverRandomRecords(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(42))
	filters := leads.FilterSet{
		Industries: []string{"Technology"},
		Locations:  []string{"California"},
		Titles:     []string{"CTO"},
	}
	statuses := []leads.EnrichmentStatus{
		leads.EnrichmentPending,
		leads.EnrichmentCompleted,
		leads.EnrichmentPatternGuessed,
		leads.EnrichmentFailed,
	}
	sources := []string{"search_index", "directory", "profile", ""}
	pick := func(opts []string) string { return opts[rng.Intn(len(opts))] }

	for i := 0; i < 500; i++ {
		lead := leads.Lead{
			FullName:         pick([]string{"", "Jane Doe", "John Smith"}),
			CompanyName:      pick([]string{"Acme Inc", "Beta LLC", "Gamma Corp"}),
			Industry:         pick([]string{"", "Technology", "Legal"}),
			Location:         pick([]string{"", "San Francisco, CA", "Austin, TX"}),
			JobTitle:         pick([]string{"", "CTO", "Janitor"}),
			Email:            pick([]string{"", "x@acme.com"}),
			Phone:            pick([]string{"", "305-555-0188"}),
			LinkedInURL:      pick([]string{"", "https://linkedin.com/in/x"}),
			EnrichmentStatus: statuses[rng.Intn(len(statuses))],
			Source:           sources[rng.Intn(len(sources))],
		}
		first := Score(lead, filters)
		require.Equal(t, first, Score(lead, filters))
		require.GreaterOrEqual(t, first, 0)
		require.LessOrEqual(t, first, 100)
	}
}
