// Package rank orders aggregated search results by relevance to the plan.
// Scoring is pure and deterministic: the same inputs always produce the
// same scores and the same order.
package rank

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/sells-group/research-agent/internal/model"
)

// Token weights. A query token is worth more in the title than in the
// snippet, and more in the snippet than in the URL.
const (
	titleWeight   = 3.0
	snippetWeight = 2.0
	urlWeight     = 1.0

	commerceBonus    = 2.0
	knownDomainBonus = 1.5
	thinSnippetPenalty = 1.0

	// Snippets shorter than this look like placeholder or blocked pages.
	thinSnippetLen = 40
)

// commerceTerms mark transactional intent in the user's question. When the
// question is commercial, shopping domains get a bonus instead of being
// treated as noise.
var commerceTerms = []string{
	"buy", "price", "cheap", "cheapest", "deal", "discount", "cost",
	"purchase", "order", "shop", "best value",
}

// knownDomains are hosts whose results are reliably substantive.
var knownDomains = []string{
	"wikipedia.org", "britannica.com", "reuters.com", "bloomberg.com",
	"forbes.com", "bbc.com", "nytimes.com", "nature.com", "arxiv.org",
	"github.com", "stackoverflow.com",
}

var commerceDomains = []string{
	"amazon.", "ebay.", "walmart.", "bestbuy.", "target.", "aliexpress.",
}

// Ranker scores and orders search results.
type Ranker struct {
	// MinScore drops results scoring below it after clamping. Zero keeps
	// everything.
	MinScore float64
}

// New returns a Ranker with default settings.
func New() *Ranker {
	return &Ranker{}
}

// Rank scores each result against the plan queries and returns a new slice
// ordered by descending score. Ties keep their input order. The input
// slice is not modified; Score fields are set on the returned copies.
func (r *Ranker) Rank(results []model.SearchResult, queries []string) []model.SearchResult {
	tokens := queryTokens(queries)
	commercial := hasCommerceIntent(queries)

	ranked := make([]model.SearchResult, 0, len(results))
	for _, res := range results {
		score := scoreResult(res, tokens, commercial)
		if r.MinScore > 0 && score < r.MinScore {
			continue
		}
		res.Score = &score
		ranked = append(ranked, res)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})
	return ranked
}

func scoreResult(res model.SearchResult, tokens []string, commercial bool) float64 {
	title := strings.ToLower(res.Title)
	snippet := strings.ToLower(res.Snippet)
	lowURL := strings.ToLower(res.URL)

	var score float64
	for _, tok := range tokens {
		if strings.Contains(title, tok) {
			score += titleWeight
		}
		if strings.Contains(snippet, tok) {
			score += snippetWeight
		}
		if strings.Contains(lowURL, tok) {
			score += urlWeight
		}
	}

	host := hostOf(res.URL)
	for _, d := range knownDomains {
		if strings.HasSuffix(host, d) {
			score += knownDomainBonus
			break
		}
	}
	if commercial {
		for _, d := range commerceDomains {
			if strings.Contains(host, d) {
				score += commerceBonus
				break
			}
		}
	}

	if len(strings.TrimSpace(res.Snippet)) < thinSnippetLen {
		score -= thinSnippetPenalty
	}

	if score < 0 {
		score = 0
	}
	return score
}

// queryTokens extracts deduplicated lowercase tokens of length >= 3 from
// the plan queries. Short tokens match too promiscuously to carry signal.
func queryTokens(queries []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range queries {
		for _, tok := range strings.FieldsFunc(strings.ToLower(q), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		}) {
			if len(tok) < 3 || seen[tok] {
				continue
			}
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}

func hasCommerceIntent(queries []string) bool {
	joined := strings.ToLower(strings.Join(queries, " "))
	for _, term := range commerceTerms {
		if strings.Contains(joined, term) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
