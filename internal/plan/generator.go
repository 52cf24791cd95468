// Package plan turns a natural-language question into a structured search
// plan. A generative backend produces the plan; deterministic fallback
// templates take over whenever the backend is missing, fails, or returns
// something unusable.
package plan

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/genai"
	"github.com/sells-group/research-agent/internal/model"
)

// Query count bounds for a generated plan.
const (
	minQueries = 3
	maxQueries = 7
)

// Generator produces search plans.
type Generator struct {
	backend genai.Backend
	log     *zap.Logger
}

// NewGenerator creates a Generator. A nil backend is allowed; every plan
// then comes from the fallback templates.
func NewGenerator(backend genai.Backend) *Generator {
	return &Generator{backend: backend, log: zap.L().Named("plan")}
}

// planJSON is the wire shape the backend is asked for.
type planJSON struct {
	Analysis           string   `json:"analysis"`
	Queries            []string `json:"queries"`
	SecondaryQuestions []string `json:"secondary_questions"`
	SourceTypes        []string `json:"source_types"`
	Strategy           string   `json:"strategy"`
	Steps              []string `json:"steps"`
}

// Generate builds a plan for the question. A non-empty chain marks a
// follow-up: the plan leans on the prior subject and never repeats an
// earlier query verbatim. Generate always returns a usable plan; the
// error is nil unless the context was canceled.
func (g *Generator) Generate(ctx context.Context, question string, chain []model.ContextEntry) (model.SearchPlan, error) {
	if err := ctx.Err(); err != nil {
		return model.SearchPlan{}, err
	}

	if g.backend == nil {
		return g.fallback(question, chain, "no backend configured"), nil
	}

	// Very short questions carry too little signal to be worth a backend
	// round trip; the templates do as well.
	if len(strings.Fields(question)) < 3 {
		return g.fallback(question, chain, "question too short"), nil
	}

	completion, err := g.backend.Complete(ctx, genai.Request{
		System:      planSystemPrompt,
		Prompt:      buildPlanPrompt(question, chain),
		MaxTokens:   1024,
		Temperature: genai.Temp(0.3),
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.SearchPlan{}, ctx.Err()
		}
		return g.fallback(question, chain, err.Error()), nil
	}

	raw, err := genai.ExtractJSON(completion)
	if err != nil {
		return g.fallback(question, chain, "completion had no JSON"), nil
	}

	var pj planJSON
	if err := json.Unmarshal([]byte(raw), &pj); err != nil {
		return g.fallback(question, chain, "completion JSON did not parse"), nil
	}

	p := sanitize(pj, chain)
	if len(p.Queries) < 2 {
		return g.fallback(question, chain, "too few usable queries"), nil
	}

	p.Contextual = len(chain) > 0
	return p.CapQueries(maxQueries), nil
}

func (g *Generator) fallback(question string, chain []model.ContextEntry, reason string) model.SearchPlan {
	g.log.Warn("using fallback plan", zap.String("reason", reason))
	return fallbackPlan(question, chain).CapQueries(maxQueries)
}

// sanitize validates backend queries: collapsed whitespace, at least
// three words each, no repeats of earlier session queries.
func sanitize(pj planJSON, chain []model.ContextEntry) model.SearchPlan {
	prior := make(map[string]bool, len(chain))
	for _, e := range chain {
		prior[strings.ToLower(strings.TrimSpace(e.Query))] = true
	}

	var queries []string
	for _, q := range pj.Queries {
		q = strings.Join(strings.Fields(q), " ")
		if len(strings.Fields(q)) < 3 {
			continue
		}
		if prior[strings.ToLower(q)] {
			continue
		}
		queries = append(queries, q)
	}

	return model.SearchPlan{
		Queries:            dedupeQueries(queries),
		SecondaryQuestions: pj.SecondaryQuestions,
		SourceTypes:        pj.SourceTypes,
		Strategy:           strings.TrimSpace(pj.Strategy),
		Analysis:           strings.TrimSpace(pj.Analysis),
		Steps:              pj.Steps,
	}
}
