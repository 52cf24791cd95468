package extract

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/jina"
)

// ReaderMethod extracts pages through the Jina Reader API, which renders
// JavaScript and returns clean markdown. It handles pages the local
// fetcher cannot.
type ReaderMethod struct {
	client  jina.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// NewReaderMethod wraps a Jina client as an extraction method.
func NewReaderMethod(client jina.Client) *ReaderMethod {
	p := resilience.DefaultPolicy()
	p.Retryable = readerRetryable
	p.OnRetry = resilience.RetryLogger("jina-reader", "extract")
	return &ReaderMethod{
		client:  client,
		breaker: resilience.NewBreaker(3, 0, 0),
		policy:  p,
	}
}

func readerRetryable(err error) bool {
	var apiErr *jina.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func (m *ReaderMethod) Name() string { return "reader" }

func (m *ReaderMethod) Available() bool {
	return m.client != nil && !m.breaker.Open()
}

func (m *ReaderMethod) Extract(ctx context.Context, url string) (*model.ExtractedArticle, error) {
	art, err := resilience.DoVal(ctx, m.policy, func(ctx context.Context) (*jina.Article, error) {
		return m.client.Read(ctx, url)
	})
	if err != nil {
		m.breaker.Failure()
		return nil, err
	}
	m.breaker.Success()

	if IsBlockPage(art.Content) {
		return nil, eris.Errorf("extract: block page at %s", url)
	}

	return &model.ExtractedArticle{
		URL:     url,
		Title:   art.Title,
		Content: art.Content,
		Method:  m.Name(),
	}, nil
}
