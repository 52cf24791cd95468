package genai

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/perplexity"
)

// PerplexityBackend completes requests via the Perplexity chat API. Its
// completions are grounded in live web results, which makes it a good
// synthesis backend when no article evidence was gathered.
type PerplexityBackend struct {
	client perplexity.Client
	policy resilience.Policy
}

// NewPerplexityBackend wraps a Perplexity client as a Backend.
func NewPerplexityBackend(client perplexity.Client) *PerplexityBackend {
	p := resilience.DefaultPolicy()
	p.Retryable = perplexityRetryable
	p.OnRetry = resilience.RetryLogger("perplexity", "complete")
	return &PerplexityBackend{client: client, policy: p}
}

func perplexityRetryable(err error) bool {
	var apiErr *perplexity.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

func (b *PerplexityBackend) Name() string { return "perplexity" }

func (b *PerplexityBackend) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]perplexity.Message, 0, 2)
	if req.System != "" {
		messages = append(messages, perplexity.Message{Role: "system", Content: req.System})
	}
	messages = append(messages, perplexity.Message{Role: "user", Content: req.Prompt})

	chatReq := perplexity.ChatCompletionRequest{Messages: messages}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = &req.MaxTokens
	}
	chatReq.Temperature = req.Temperature

	resp, err := resilience.DoVal(ctx, b.policy, func(ctx context.Context) (*perplexity.ChatCompletionResponse, error) {
		return b.client.ChatCompletion(ctx, chatReq)
	})
	if err != nil {
		return "", eris.Wrap(err, "genai: perplexity completion")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", eris.New("genai: perplexity returned empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
