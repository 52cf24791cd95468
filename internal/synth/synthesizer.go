// Package synth produces the final written answer from gathered evidence.
// A generative backend writes the synthesis; a deterministic template
// stands in when the backend is unavailable. When no evidence was
// gathered, the synthesis says so instead of inventing sources.
package synth

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/genai"
	"github.com/sells-group/research-agent/internal/model"
)

const synthSystemPrompt = `You are a research analyst. Write a concise, well-organized answer to the user's question using only the provided article excerpts. Cite sources inline by their URL. If the evidence does not answer the question, say what is missing. Never invent facts or sources.`

// Synthesizer writes answers from evidence.
type Synthesizer struct {
	backend genai.Backend
	log     *zap.Logger
}

// NewSynthesizer creates a Synthesizer. A nil backend is allowed; every
// answer then comes from the template.
func NewSynthesizer(backend genai.Backend) *Synthesizer {
	return &Synthesizer{backend: backend, log: zap.L().Named("synth")}
}

// Input is everything synthesis may draw on.
type Input struct {
	Question string
	Plan     model.SearchPlan
	Results  []model.SearchResult
	Articles []model.ExtractedArticle
	Chain    []model.ContextEntry
}

// Run produces the synthesis text. It always returns usable prose; the
// error is nil unless the context was canceled.
func (s *Synthesizer) Run(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if len(in.Articles) == 0 && len(in.Results) == 0 {
		return emptyEvidenceAnswer(in.Question), nil
	}

	if s.backend == nil {
		return templateAnswer(in), nil
	}

	completion, err := s.backend.Complete(ctx, genai.Request{
		System:      synthSystemPrompt,
		Prompt:      buildSynthPrompt(in),
		MaxTokens:   2048,
		Temperature: genai.Temp(0.4),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.log.Warn("synthesis backend failed, using template", zap.Error(err))
		return templateAnswer(in), nil
	}

	text := strings.TrimSpace(completion)
	if text == "" {
		return templateAnswer(in), nil
	}
	return text, nil
}

func buildSynthPrompt(in Input) string {
	var b strings.Builder

	if len(in.Chain) > 0 {
		b.WriteString("Session context:\n")
		for _, e := range in.Chain {
			fmt.Fprintf(&b, "- earlier question %q: %s\n", e.Query, e.Summary)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Question: %s\n\n", in.Question)
	if in.Plan.Analysis != "" {
		fmt.Fprintf(&b, "Plan analysis: %s\n\n", in.Plan.Analysis)
	}

	if len(in.Articles) > 0 {
		b.WriteString("Article excerpts:\n")
		for _, a := range in.Articles {
			fmt.Fprintf(&b, "--- %s (%s)\n%s\n", a.Title, a.URL, a.Content)
		}
	} else {
		// No readable articles; search snippets are the only evidence.
		b.WriteString("Search result snippets (no full articles were readable):\n")
		for _, r := range in.Results {
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
		}
	}

	return b.String()
}

// templateAnswer assembles a sources-first answer without a model: the
// question, what was found, and where.
func templateAnswer(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research summary for: %s\n\n", in.Question)

	if len(in.Articles) > 0 {
		b.WriteString("Key sources:\n\n")
		for _, a := range in.Articles {
			title := a.Title
			if title == "" {
				title = a.URL
			}
			fmt.Fprintf(&b, "%s (%s)\n%s\n\n", title, a.URL, a.Summary)
		}
	} else {
		b.WriteString("No article content could be extracted; the search results below may help directly.\n\n")
		for _, r := range in.Results {
			fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
		}
	}

	return strings.TrimSpace(b.String())
}

// emptyEvidenceAnswer is the honest zero-result answer.
func emptyEvidenceAnswer(question string) string {
	return fmt.Sprintf(
		"No relevant sources were found for: %s\n\nNo answer can be offered without evidence. Try rephrasing the question or broadening its scope.",
		question,
	)
}
