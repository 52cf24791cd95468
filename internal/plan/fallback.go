package plan

import (
	"strings"
	"unicode"

	"github.com/sells-group/research-agent/internal/model"
)

// Fallback plans are deterministic templates keyed on the shape of the
// question. They keep the pipeline alive when no backend is configured or
// the backend fails, without ever fabricating an answer.

func fallbackPlan(question string, chain []model.ContextEntry) model.SearchPlan {
	q := strings.TrimSpace(question)
	lower := strings.ToLower(q)
	subject := subjectOf(q, chain)

	var p model.SearchPlan
	switch {
	case isComparative(lower):
		p = comparativePlan(q, lower)
	case isProcedural(lower):
		p = proceduralPlan(q)
	default:
		p = genericPlan(q)
	}

	if len(chain) > 0 {
		p = contextualize(p, q, subject, lower)
	}

	p.Steps = []string{"analyze question", "run searches", "read top sources", "synthesize"}
	return p
}

func isComparative(lower string) bool {
	for _, kw := range []string{" vs ", " versus ", "compare", "difference between", "richer", "better than", "richest", "fortune"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	// "who is richer, X or Y" style: an "or" with a leading interrogative.
	return strings.HasPrefix(lower, "who ") && strings.Contains(lower, " or ")
}

func isProcedural(lower string) bool {
	return strings.HasPrefix(lower, "how to") || strings.HasPrefix(lower, "how do") ||
		strings.HasPrefix(lower, "how can") || strings.Contains(lower, "step by step")
}

func comparativePlan(q, lower string) model.SearchPlan {
	queries := []string{q, q + " comparison"}
	if strings.Contains(lower, "richer") || strings.Contains(lower, "richest") || strings.Contains(lower, "fortune") {
		for _, name := range properNouns(q) {
			queries = append(queries, name+" net worth")
		}
		queries = append(queries, q+" forbes")
	} else {
		for _, name := range properNouns(q) {
			queries = append(queries, name+" overview")
		}
	}
	return model.SearchPlan{
		Queries:            dedupeQueries(queries),
		SecondaryQuestions: []string{"What criteria matter for this comparison?"},
		SourceTypes:        []string{"news", "reference", "rankings"},
		Strategy:           "comparative",
		Analysis:           "Comparative question: gather figures for each side, then compare.",
	}
}

func proceduralPlan(q string) model.SearchPlan {
	return model.SearchPlan{
		Queries: dedupeQueries([]string{
			q,
			q + " guide",
			q + " step by step",
			q + " common mistakes",
		}),
		SecondaryQuestions: []string{"What prerequisites are needed?", "What usually goes wrong?"},
		SourceTypes:        []string{"tutorials", "documentation", "forums"},
		Strategy:           "procedural",
		Analysis:           "How-to question: find instructions and practical pitfalls.",
	}
}

func genericPlan(q string) model.SearchPlan {
	return model.SearchPlan{
		Queries: dedupeQueries([]string{
			q,
			q + " explained",
			q + " latest",
		}),
		SecondaryQuestions: []string{"What background does this topic assume?"},
		SourceTypes:        []string{"news", "reference"},
		Strategy:           "broad",
		Analysis:           "General question: gather an overview plus recent coverage.",
	}
}

// contextualize reshapes a fallback plan for a follow-up question. The
// question often leans on the prior subject ("what are the risks?"), so
// queries get the subject stitched in.
func contextualize(p model.SearchPlan, q, subject, lower string) model.SearchPlan {
	p.Contextual = true
	if subject == "" {
		return p
	}

	var angled []string
	switch {
	case strings.Contains(lower, "risk") || strings.Contains(lower, "danger") || strings.Contains(lower, "problem"):
		angled = []string{subject + " risks", subject + " problems", subject + " criticism"}
	case strings.Contains(lower, "example") || strings.Contains(lower, "case"):
		angled = []string{subject + " examples", subject + " case studies"}
	case strings.Contains(lower, "alternative") || strings.Contains(lower, "instead"):
		angled = []string{subject + " alternatives", subject + " competitors"}
	default:
		angled = []string{subject + " " + q}
	}

	p.Queries = dedupeQueries(append(angled, p.Queries...))
	p.Strategy = "contextual-" + p.Strategy
	return p
}

// subjectOf derives the running subject for follow-ups: the most recent
// prior query, shortened to its leading words.
func subjectOf(q string, chain []model.ContextEntry) string {
	if len(chain) == 0 {
		return ""
	}
	words := strings.Fields(chain[len(chain)-1].Query)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// properNouns pulls capitalized word runs out of the question, skipping
// the leading word.
func properNouns(q string) []string {
	words := strings.Fields(q)
	var nouns []string
	var current []string
	for i, w := range words {
		trimmed := strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsNumber(r) })
		r := []rune(trimmed)
		if i > 0 && len(r) > 0 && unicode.IsUpper(r[0]) {
			current = append(current, trimmed)
			continue
		}
		if len(current) > 0 {
			nouns = append(nouns, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		nouns = append(nouns, strings.Join(current, " "))
	}
	return nouns
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range queries {
		q = strings.Join(strings.Fields(q), " ")
		if q == "" || seen[strings.ToLower(q)] {
			continue
		}
		seen[strings.ToLower(q)] = true
		out = append(out, q)
	}
	return out
}
