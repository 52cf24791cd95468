package search

import (
	"net/url"
	"strings"
	"unicode"
)

// maxQueryLen is where search engines start truncating or misparsing
// long natural-language queries.
const maxQueryLen = 60

// NormalizeQuery prepares a plan query for submission to a provider.
// Whitespace is collapsed; queries over the length cap are rebuilt from
// the leading clause plus the remaining keyword-like tokens. Words are
// never cut mid-way.
func NormalizeQuery(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if len(q) <= maxQueryLen {
		return q
	}

	words := strings.Fields(q)

	// Keep the leading clause: the first three words anchor the intent.
	kept := words[:min(3, len(words))]
	length := len(strings.Join(kept, " "))

	for _, w := range words[len(kept):] {
		if !keywordLike(w) {
			continue
		}
		if length+1+len(w) > maxQueryLen {
			break
		}
		kept = append(kept, w)
		length += 1 + len(w)
	}

	return strings.Join(kept, " ")
}

// keywordLike reports whether a word carries search signal on its own:
// long words, capitalized names, and numbers do; short function words
// do not.
func keywordLike(w string) bool {
	if len(w) >= 5 {
		return true
	}
	r := []rune(w)
	if len(r) > 0 && (unicode.IsUpper(r[0]) || unicode.IsDigit(r[0])) {
		return true
	}
	return false
}

// CanonicalURL is the deduplication key for a result URL: a single
// trailing slash is dropped, everything else is preserved as-is.
func CanonicalURL(raw string) string {
	if strings.HasSuffix(raw, "/") && !strings.HasSuffix(raw, "//") {
		return raw[:len(raw)-1]
	}
	return raw
}

// ValidResultURL reports whether a URL is worth keeping: absolute, with
// an http or https scheme and a host.
func ValidResultURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
