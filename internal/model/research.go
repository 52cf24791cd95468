// Package model defines the shared data types for the research pipeline.
package model

import (
	"strings"
	"time"
)

// SearchPlan is the structured output of plan generation: an ordered set of
// concrete search queries derived from the user's question, plus metadata.
// Immutable after creation.
type SearchPlan struct {
	Queries            []string `json:"queries"`
	SecondaryQuestions []string `json:"secondary_questions,omitempty"`
	SourceTypes        []string `json:"source_types,omitempty"`
	Strategy           string   `json:"strategy"`
	Analysis           string   `json:"analysis,omitempty"`
	Steps              []string `json:"steps,omitempty"`
	Contextual         bool     `json:"contextual,omitempty"`
}

// CapQueries returns a copy of the plan with at most n queries.
func (p SearchPlan) CapQueries(n int) SearchPlan {
	if n <= 0 || len(p.Queries) <= n {
		return p
	}
	capped := p
	capped.Queries = p.Queries[:n]
	return capped
}

// SearchResult is a single result from a search provider. Identity is the
// URL; within an aggregated set no two results share one.
type SearchResult struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Snippet  string   `json:"snippet"`
	Provider string   `json:"provider"`
	Score    *float64 `json:"relevance_score,omitempty"`
}

// ExtractedArticle is readable text pulled from a result URL.
// Content is bounded: at least MinContentLen and at most MaxContentLen.
type ExtractedArticle struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Summary     string   `json:"summary,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	PublishedAt string   `json:"published_at,omitempty"`
	Method      string   `json:"method"`
}

// Content bounds for extracted articles. Articles below the floor are
// discarded at the extraction site; content is truncated to the cap there
// as well, never at the point of use.
const (
	MinContentLen = 100
	MaxContentLen = 3000
	SummaryLen    = 500
)

// Stats summarizes a completed run.
type Stats struct {
	SearchResults int              `json:"search_results_count"`
	Articles      int              `json:"scraped_articles_count"`
	QueriesUsed   int              `json:"search_queries_used"`
	DurationMS    int64            `json:"total_duration_ms"`
	StepMS        map[string]int64 `json:"step_durations_ms,omitempty"`
}

// ResearchResult is the terminal artifact of a successful run. Immutable;
// owned by the caller after return.
type ResearchResult struct {
	ID            string             `json:"id"`
	Query         string             `json:"query"`
	Plan          SearchPlan         `json:"plan"`
	SearchResults []SearchResult     `json:"search_results"`
	Articles      []ExtractedArticle `json:"scraped_articles"`
	Synthesis     string             `json:"synthesis"`
	Stats         Stats              `json:"stats"`
	Contextual    bool               `json:"is_contextual,omitempty"`
	ContextOf     string             `json:"context_of,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// Digest returns a short textual summary of the result for context
// chaining. It never includes article bodies.
func (r *ResearchResult) Digest(maxLen int) string {
	s := strings.TrimSpace(r.Synthesis)
	if maxLen > 0 && len(s) > maxLen {
		cut := strings.LastIndex(s[:maxLen], " ")
		if cut <= 0 {
			cut = maxLen
		}
		s = s[:cut] + "..."
	}
	return s
}

// ContextEntry is one item in the session context chain.
type ContextEntry struct {
	Kind    string    `json:"kind"`
	Query   string    `json:"query"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}
