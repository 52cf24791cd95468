package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"short passes through", "solar energy trends 2026"},
		{"whitespace collapsed", "  solar   energy  "},
		{"long query shortened", "what are the most important emerging renewable energy storage technologies being developed by European manufacturers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeQuery(tt.in)
			assert.LessOrEqual(t, len(got), maxQueryLen)
			assert.NotEmpty(t, got)
			// Every output word exists verbatim in the input: no word is
			// ever cut in half.
			inWords := map[string]bool{}
			for _, w := range strings.Fields(tt.in) {
				inWords[w] = true
			}
			for _, w := range strings.Fields(got) {
				assert.True(t, inWords[w], "word %q not in input", w)
			}
		})
	}
}

func TestNormalizeQuery_KeepsLeadingClause(t *testing.T) {
	long := "who is the richest person among technology founders in the United States considering recent valuations"
	got := NormalizeQuery(long)
	assert.True(t, strings.HasPrefix(got, "who is the"), "got %q", got)
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a", CanonicalURL("https://example.com/a/"))
	assert.Equal(t, "https://example.com/a", CanonicalURL("https://example.com/a"))
	// Case preserved: paths can be case-sensitive.
	assert.Equal(t, "https://example.com/Path", CanonicalURL("https://example.com/Path"))
}

func TestValidResultURL(t *testing.T) {
	assert.True(t, ValidResultURL("https://example.com/page"))
	assert.True(t, ValidResultURL("http://example.com"))
	assert.False(t, ValidResultURL("ftp://example.com/file"))
	assert.False(t, ValidResultURL("/relative/path"))
	assert.False(t, ValidResultURL("javascript:alert(1)"))
	assert.False(t, ValidResultURL(""))
}
