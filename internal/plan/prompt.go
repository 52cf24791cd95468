package plan

import (
	"fmt"
	"strings"

	"github.com/sells-group/research-agent/internal/model"
)

const planSystemPrompt = `You are a research planner. Given a question, produce a focused web search plan.

Respond with a single JSON object and nothing else:
{
  "analysis": "one sentence on what the question is really asking",
  "queries": ["3 to 7 concrete web search queries, each under 60 characters"],
  "secondary_questions": ["follow-up questions worth answering"],
  "source_types": ["kinds of sources likely to help"],
  "strategy": "one sentence on the search approach",
  "steps": ["short ordered step descriptions"]
}

Queries must be search-engine queries, not sentences. Never invent facts.`

// buildPlanPrompt assembles the user prompt, folding in prior session
// context for follow-up questions.
func buildPlanPrompt(question string, chain []model.ContextEntry) string {
	var b strings.Builder

	if len(chain) > 0 {
		b.WriteString("Earlier in this session:\n")
		for _, e := range chain {
			fmt.Fprintf(&b, "- asked %q, learned: %s\n", e.Query, e.Summary)
		}
		b.WriteString("\nThe next question continues that thread. Bias the queries toward the established subject, but do not repeat earlier queries verbatim.\n\n")
	}

	fmt.Fprintf(&b, "Question: %s", question)
	return b.String()
}
