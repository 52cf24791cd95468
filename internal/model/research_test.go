package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchPlan_CapQueries(t *testing.T) {
	plan := SearchPlan{Queries: []string{"a", "b", "c", "d"}}

	capped := plan.CapQueries(2)
	assert.Equal(t, []string{"a", "b"}, capped.Queries)
	// Original untouched.
	assert.Len(t, plan.Queries, 4)

	assert.Len(t, plan.CapQueries(0).Queries, 4)
	assert.Len(t, plan.CapQueries(10).Queries, 4)
}

func TestResearchResult_Digest(t *testing.T) {
	r := &ResearchResult{Synthesis: "solar power is growing quickly in residential markets worldwide"}

	d := r.Digest(30)
	assert.True(t, strings.HasSuffix(d, "..."))
	assert.LessOrEqual(t, len(d), 34)
	// Cut lands on a word boundary, not mid-word.
	trimmed := strings.TrimSuffix(d, "...")
	assert.True(t, strings.HasSuffix(r.Synthesis, trimmed) || strings.HasPrefix(r.Synthesis, trimmed))

	full := r.Digest(0)
	assert.Equal(t, r.Synthesis, full)
}
