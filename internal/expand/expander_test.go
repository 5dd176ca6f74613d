package expand

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mwhitlock/leadforge/internal/leads"
)

func TestQueries_ExpandsSynonymsAndVariants(t *testing.T) {
	t.Parallel()

	f := leads.FilterSet{
		Industries: []string{"Real Estate"},
		Locations:  []string{"Florida"},
	}

	queries := Queries(f)

	require.NotEmpty(t, queries)
	require.LessOrEqual(t, len(queries), MaxQueries)

	foundCombined := false
	for _, q := range queries {
		if containsAny(q, "realtors", "real estate", "realty", "property managers") &&
			containsAny(q, "Florida", "FL", "Miami", "Orlando", "Tampa") {
			foundCombined = true
			break
		}
	}
	require.True(t, foundCombined, "expected a query mixing an industry synonym with a location variant, got %v", queries)
}

func TestQueries_Deterministic(t *testing.T) {
	t.Parallel()

	f := leads.FilterSet{
		Industries: []string{"Legal", "Finance"},
		Locations:  []string{"Texas"},
		Titles:     []string{"CEO"},
	}

	require.Equal(t, Queries(f), Queries(f))
}

func TestQueries_TruncatesToCap(t *testing.T) {
	t.Parallel()

	f := leads.FilterSet{
		Industries: []string{"Real Estate", "Healthcare", "Legal", "Finance"},
		Locations:  []string{"Florida", "California", "Texas"},
		Titles:     []string{"CEO", "Owner", "Director"},
	}

	queries := Queries(f)

	require.Len(t, queries, MaxQueries)
	require.Equal(t, len(queries), len(uniqueStrings(queries)))
}

func TestQueries_OmitsAbsentDimensions(t *testing.T) {
	t.Parallel()

	queries := Queries(leads.FilterSet{Titles: []string{"CFO"}})

	require.Equal(t, []string{"CFO", "Chief Financial Officer"}, queries)
}

func TestQueries_UnknownValuesPassThrough(t *testing.T) {
	t.Parallel()

	queries := Queries(leads.FilterSet{
		Industries: []string{"Aerospace"},
		Locations:  []string{"Reykjavik"},
	})

	require.Contains(t, queries, "Aerospace Reykjavik")
	require.Contains(t, queries, "Aerospace companies Reykjavik")
}

func TestQueries_NoTermDimensionsYieldNoQueries(t *testing.T) {
	t.Parallel()

	queries := Queries(leads.FilterSet{CompanySizes: []string{"11-50"}})

	require.Empty(t, queries)
}

func TestTitleTerms(t *testing.T) {
	t.Parallel()

	terms := TitleTerms(leads.FilterSet{Titles: []string{"CEO"}})

	require.Equal(t, []string{"CEO", "Chief Executive Officer", "President"}, terms)
	require.Empty(t, TitleTerms(leads.FilterSet{}))
}

func containsAny(haystack string, needles ...string) bool {
	lower := strings.ToLower(haystack)
	for _, n := range needles {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
