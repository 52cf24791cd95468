package genai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-agent/pkg/perplexity"
)

type fakePerplexity struct {
	responses []*perplexity.ChatCompletionResponse
	errs      []error
	calls     int
	lastReq   perplexity.ChatCompletionRequest
}

func (f *fakePerplexity) ChatCompletion(ctx context.Context, req perplexity.ChatCompletionRequest) (*perplexity.ChatCompletionResponse, error) {
	f.lastReq = req
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, errors.New("no scripted response")
}

func completion(text string) *perplexity.ChatCompletionResponse {
	return &perplexity.ChatCompletionResponse{
		Choices: []perplexity.Choice{{Message: perplexity.Message{Role: "assistant", Content: text}}},
	}
}

func TestPerplexityBackend_Complete(t *testing.T) {
	fake := &fakePerplexity{responses: []*perplexity.ChatCompletionResponse{completion("an answer")}}
	b := NewPerplexityBackend(fake)
	b.policy.BaseDelay = 1

	got, err := b.Complete(context.Background(), Request{System: "be brief", Prompt: "question"})
	require.NoError(t, err)
	assert.Equal(t, "an answer", got)
	require.Len(t, fake.lastReq.Messages, 2)
	assert.Equal(t, "system", fake.lastReq.Messages[0].Role)
}

func TestPerplexityBackend_RetriesTransientStatus(t *testing.T) {
	fake := &fakePerplexity{
		errs:      []error{&perplexity.APIError{StatusCode: 503}, nil},
		responses: []*perplexity.ChatCompletionResponse{nil, completion("recovered")},
	}
	b := NewPerplexityBackend(fake)
	b.policy.BaseDelay = 1

	got, err := b.Complete(context.Background(), Request{Prompt: "question"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, 2, fake.calls)
}

func TestPerplexityBackend_NoRetryOnAuthFailure(t *testing.T) {
	fake := &fakePerplexity{errs: []error{&perplexity.APIError{StatusCode: 401}}}
	b := NewPerplexityBackend(fake)
	b.policy.BaseDelay = 1

	_, err := b.Complete(context.Background(), Request{Prompt: "question"})
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls)
}

func TestPerplexityBackend_EmptyCompletionIsError(t *testing.T) {
	fake := &fakePerplexity{responses: []*perplexity.ChatCompletionResponse{{}}}
	b := NewPerplexityBackend(fake)
	b.policy.BaseDelay = 1

	_, err := b.Complete(context.Background(), Request{Prompt: "question"})
	require.Error(t, err)
}
