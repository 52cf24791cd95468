package search

import (
	"context"
	"errors"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/serpapi"
)

// SerpAPIProvider adapts the SerpAPI client to the Provider interface.
type SerpAPIProvider struct {
	client  serpapi.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// NewSerpAPIProvider wraps a SerpAPI client. A nil client yields a
// provider that reports itself unavailable.
func NewSerpAPIProvider(client serpapi.Client) *SerpAPIProvider {
	p := resilience.DefaultPolicy()
	p.Retryable = serpapiRetryable
	p.OnRetry = resilience.RetryLogger("serpapi", "search")
	return &SerpAPIProvider{
		client:  client,
		breaker: resilience.NewBreaker(3, 0, 0),
		policy:  p,
	}
}

func serpapiRetryable(err error) bool {
	var apiErr *serpapi.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func (p *SerpAPIProvider) Name() string { return "serpapi" }

func (p *SerpAPIProvider) Available() bool {
	return p.client != nil && !p.breaker.Open()
}

func (p *SerpAPIProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	resp, err := resilience.DoVal(ctx, p.policy, func(ctx context.Context) (*serpapi.SearchResponse, error) {
		return p.client.Search(ctx, query, serpapi.WithNum(limit))
	})
	if err != nil {
		p.breaker.Failure()
		return nil, err
	}
	p.breaker.Success()

	results := make([]model.SearchResult, 0, len(resp.OrganicResults))
	for _, r := range resp.OrganicResults {
		if len(results) >= limit {
			break
		}
		results = append(results, model.SearchResult{
			Title:    r.Title,
			URL:      r.Link,
			Snippet:  r.Snippet,
			Provider: p.Name(),
		})
	}
	return results, nil
}
