package search

import (
	"context"
	"errors"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/serper"
)

// SerperProvider adapts the Serper.dev client to the Provider interface.
type SerperProvider struct {
	client  serper.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// NewSerperProvider wraps a Serper client. A nil client yields a provider
// that reports itself unavailable.
func NewSerperProvider(client serper.Client) *SerperProvider {
	p := resilience.DefaultPolicy()
	p.Retryable = serperRetryable
	p.OnRetry = resilience.RetryLogger("serper", "search")
	return &SerperProvider{
		client:  client,
		breaker: resilience.NewBreaker(3, 0, 0),
		policy:  p,
	}
}

func serperRetryable(err error) bool {
	var apiErr *serper.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func (p *SerperProvider) Name() string { return "serper" }

func (p *SerperProvider) Available() bool {
	return p.client != nil && !p.breaker.Open()
}

func (p *SerperProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	resp, err := resilience.DoVal(ctx, p.policy, func(ctx context.Context) (*serper.SearchResponse, error) {
		return p.client.Search(ctx, serper.SearchRequest{Query: query, Num: limit})
	})
	if err != nil {
		p.breaker.Failure()
		return nil, err
	}
	p.breaker.Success()

	results := make([]model.SearchResult, 0, len(resp.Organic))
	for _, r := range resp.Organic {
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
