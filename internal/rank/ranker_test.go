package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-agent/internal/model"
)

func result(title, url, snippet string) model.SearchResult {
	return model.SearchResult{Title: title, URL: url, Snippet: snippet}
}

func TestRank_TitleMatchOutweighsSnippet(t *testing.T) {
	results := []model.SearchResult{
		result("unrelated page", "https://example.com/a", "this snippet mentions solar panels in passing but is long enough"),
		result("solar panels guide", "https://example.com/b", "a long enough snippet that does not mention the topic here"),
	}

	ranked := New().Rank(results, []string{"solar panels"})
	require.Len(t, ranked, 2)
	assert.Equal(t, "https://example.com/b", ranked[0].URL)
	assert.Greater(t, *ranked[0].Score, *ranked[1].Score)
}

func TestRank_DeterministicAndStable(t *testing.T) {
	results := []model.SearchResult{
		result("same title energy", "https://a.example.com/x", "identical snippet about energy markets today"),
		result("same title energy", "https://b.example.com/x", "identical snippet about energy markets today"),
	}

	first := New().Rank(results, []string{"energy"})
	second := New().Rank(results, []string{"energy"})
	require.Len(t, first, 2)
	// Equal scores keep input order, on every run.
	assert.Equal(t, first[0].URL, second[0].URL)
	assert.Equal(t, "https://a.example.com/x", first[0].URL)
	assert.Equal(t, *first[0].Score, *first[1].Score)
}

func TestRank_InputNotMutated(t *testing.T) {
	results := []model.SearchResult{
		result("solar guide", "https://example.com", "plenty of snippet text about solar power here"),
	}
	_ = New().Rank(results, []string{"solar"})
	assert.Nil(t, results[0].Score)
}

func TestRank_ScoresNeverNegative(t *testing.T) {
	results := []model.SearchResult{
		result("x", "https://example.com/q", "short"),
	}
	ranked := New().Rank(results, []string{"unrelated query terms"})
	require.Len(t, ranked, 1)
	assert.GreaterOrEqual(t, *ranked[0].Score, 0.0)
}

func TestRank_KnownDomainBonus(t *testing.T) {
	results := []model.SearchResult{
		result("solar energy overview", "https://randomblog.example.com/solar-energy", "an overview of solar energy growth and markets"),
		result("solar energy overview", "https://en.wikipedia.org/wiki/Solar_energy", "an overview of solar energy growth and markets"),
	}
	ranked := New().Rank(results, []string{"solar energy"})
	assert.Contains(t, ranked[0].URL, "wikipedia.org")
}

func TestRank_CommerceBonusOnlyForCommercialIntent(t *testing.T) {
	results := []model.SearchResult{
		result("laptop reviews roundup", "https://reviews.example.com/laptops", "detailed laptop reviews with benchmarks included"),
		result("laptop deals", "https://www.amazon.com/laptops", "detailed laptop listings with prices and shipping info"),
	}

	commercial := New().Rank(results, []string{"buy cheap laptop"})
	assert.Contains(t, commercial[0].URL, "amazon.com")

	informational := New().Rank(results, []string{"laptop architecture explained"})
	for _, r := range informational {
		if r.URL == "https://reviews.example.com/laptops" {
			assert.NotNil(t, r.Score)
		}
	}
}

func TestRank_ThinSnippetPenalized(t *testing.T) {
	results := []model.SearchResult{
		result("solar power", "https://a.example.com", "tiny"),
		result("solar power", "https://b.example.com", "a substantive snippet describing solar power adoption trends"),
	}
	ranked := New().Rank(results, []string{"solar power"})
	assert.Equal(t, "https://b.example.com", ranked[0].URL)
}

func TestRank_MinScoreFilters(t *testing.T) {
	r := &Ranker{MinScore: 1.0}
	results := []model.SearchResult{
		result("irrelevant", "https://example.com", "nothing matching at all but long enough to avoid penalty"),
		result("quantum computing advances", "https://example.org/quantum", "recent quantum computing advances explained in detail"),
	}
	ranked := r.Rank(results, []string{"quantum computing"})
	require.Len(t, ranked, 1)
	assert.Equal(t, "https://example.org/quantum", ranked[0].URL)
}
