package search

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
)

// DuckDuckGoProvider scrapes the HTML endpoint of DuckDuckGo. It needs no
// API key, which makes it the last rung of the provider chain: always
// available, never great.
type DuckDuckGoProvider struct {
	baseURL string
	http    *http.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// DuckDuckGoOption configures the provider.
type DuckDuckGoOption func(*DuckDuckGoProvider)

// WithDuckDuckGoBaseURL overrides the endpoint (for testing).
func WithDuckDuckGoBaseURL(u string) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) {
		p.baseURL = u
	}
}

// WithDuckDuckGoHTTPClient overrides the default http.Client.
func WithDuckDuckGoHTTPClient(hc *http.Client) DuckDuckGoOption {
	return func(p *DuckDuckGoProvider) {
		p.http = hc
	}
}

// NewDuckDuckGoProvider creates the HTML-scraping provider.
func NewDuckDuckGoProvider(opts ...DuckDuckGoOption) *DuckDuckGoProvider {
	pol := resilience.DefaultPolicy()
	pol.OnRetry = resilience.RetryLogger("duckduckgo", "search")
	p := &DuckDuckGoProvider{
		baseURL: "https://html.duckduckgo.com/html/",
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		breaker: resilience.NewBreaker(3, 0, 0),
		policy:  pol,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *DuckDuckGoProvider) Available() bool { return !p.breaker.Open() }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	page, err := resilience.DoVal(ctx, p.policy, func(ctx context.Context) (string, error) {
		return p.fetch(ctx, query)
	})
	if err != nil {
		p.breaker.Failure()
		return nil, err
	}
	p.breaker.Success()

	results := parseResultsPage(page, limit)
	for i := range results {
		results[i].Provider = p.Name()
	}
	return results, nil
}

func (p *DuckDuckGoProvider) fetch(ctx context.Context, query string) (string, error) {
	reqURL := p.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", eris.Wrap(err, "duckduckgo: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "duckduckgo: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", eris.Wrap(err, "duckduckgo: read response")
	}
	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransient(eris.Errorf("duckduckgo: status %d", resp.StatusCode), resp.StatusCode)
		}
		return "", eris.Errorf("duckduckgo: status %d", resp.StatusCode)
	}
	return string(body), nil
}

var (
	resultLinkRe    = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	resultSnippetRe = regexp.MustCompile(`(?s)class="result__snippet"[^>]*>(.*?)</a>`)
	tagRe           = regexp.MustCompile(`<[^>]*>`)
)

// parseResultsPage pulls (title, url, snippet) triples out of the HTML
// results page. Snippets are paired with links by document order; a
// missing snippet leaves the field empty.
func parseResultsPage(page string, limit int) []model.SearchResult {
	links := resultLinkRe.FindAllStringSubmatch(page, -1)
	snippets := resultSnippetRe.FindAllStringSubmatch(page, -1)

	results := make([]model.SearchResult, 0, len(links))
	for i, m := range links {
		if len(results) >= limit {
			break
		}
		target := resolveRedirect(html.UnescapeString(m[1]))
		if !ValidResultURL(target) {
			continue
		}
		r := model.SearchResult{
			Title: cleanText(m[2]),
			URL:   target,
		}
		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// resolveRedirect unwraps the //duckduckgo.com/l/?uddg=... redirect that
// wraps every result link.
func resolveRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	return href
}

func cleanText(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
