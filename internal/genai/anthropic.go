package genai

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/resilience"
	"github.com/sells-group/research-agent/pkg/anthropic"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicBackend completes requests via the Anthropic messages API.
type AnthropicBackend struct {
	client anthropic.Client
	model  string
	policy resilience.Policy
}

// NewAnthropicBackend wraps an Anthropic client as a Backend. An empty
// model falls back to the package default.
func NewAnthropicBackend(client anthropic.Client, model string) *AnthropicBackend {
	if model == "" {
		model = defaultAnthropicModel
	}
	p := resilience.DefaultPolicy()
	p.OnRetry = resilience.RetryLogger("anthropic", "complete")
	return &AnthropicBackend{client: client, model: model, policy: p}
}

func (b *AnthropicBackend) Name() string { return "anthropic" }

func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	resp, err := resilience.DoVal(ctx, b.policy, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		resp, err := b.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       b.model,
			MaxTokens:   maxTokens,
			System:      req.System,
			Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
			Temperature: req.Temperature,
		})
		if err != nil {
			// The SDK retries rate limits internally; anything surfacing
			// here that still looks transient gets one more pass.
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return "", eris.Wrap(err, "genai: anthropic completion")
	}

	resp.Usage.LogTokens(resp.Model, "completion")

	text := resp.Text()
	if text == "" {
		return "", eris.New("genai: anthropic returned empty completion")
	}
	return text, nil
}
