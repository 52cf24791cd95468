package search

import (
	"context"
	"errors"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/jina"
)

// JinaProvider adapts Jina Search to the Provider interface.
type JinaProvider struct {
	client  jina.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// NewJinaProvider wraps a Jina client. A nil client yields a provider
// that reports itself unavailable.
func NewJinaProvider(client jina.Client) *JinaProvider {
	p := resilience.DefaultPolicy()
	p.Retryable = jinaRetryable
	p.OnRetry = resilience.RetryLogger("jina", "search")
	return &JinaProvider{
		client:  client,
		breaker: resilience.NewBreaker(3, 0, 0),
		policy:  p,
	}
}

func jinaRetryable(err error) bool {
	var apiErr *jina.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func (p *JinaProvider) Name() string { return "jina" }

func (p *JinaProvider) Available() bool {
	return p.client != nil && !p.breaker.Open()
}

func (p *JinaProvider) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	raw, err := resilience.DoVal(ctx, p.policy, func(ctx context.Context) ([]jina.SearchResult, error) {
		return p.client.Search(ctx, query)
	})
	if err != nil {
		p.breaker.Failure()
		return nil, err
	}
	p.breaker.Success()

	results := make([]model.SearchResult, 0, len(raw))
	for _, r := range raw {
		if len(results) >= limit {
			break
		}
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		results = append(results, model.SearchResult{
			Title:    r.Title,
			URL:      r.URL,
			Snippet:  snippet,
			Provider: p.Name(),
		})
	}
	return results, nil
}
