package genai

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractJSON pulls a JSON object out of a model completion. Models often
// wrap the payload in markdown fences or surround it with prose, so this
// takes the outermost brace-delimited span.
func ExtractJSON(s string) (string, error) {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			s = rest[:j]
		} else {
			s = rest
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", eris.New("genai: no JSON object in completion")
	}
	return s[start : end+1], nil
}
