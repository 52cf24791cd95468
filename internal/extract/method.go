// Package extract turns search result URLs into readable article text.
// Extraction methods form an ordered chain: the first method that yields
// substantive content wins, and pages that fail every method are skipped
// without failing the run.
package extract

import (
	"context"
	"strings"

	"github.com/sells-group/research-agent/internal/model"
)

// Method is a single extraction strategy for one URL.
type Method interface {
	// Name identifies the method in article metadata and logs.
	Name() string

	// Available reports whether the method can currently serve requests.
	Available() bool

	// Extract fetches and converts the page at url. Content is raw at
	// this stage; bounds are enforced by the Extractor.
	Extract(ctx context.Context, url string) (*model.ExtractedArticle, error)
}

// blockSignals are phrases that mark an anti-bot interstitial rather than
// article content.
var blockSignals = []string{
	"verify you are human",
	"are you a robot",
	"enable javascript and cookies",
	"access denied",
	"captcha",
	"cloudflare",
	"unusual traffic from your computer",
	"please complete the security check",
}

// IsBlockPage reports whether extracted content is an anti-bot or
// access-denied page instead of the article. Only short documents are
// considered; a real article that merely mentions these phrases is long.
func IsBlockPage(content string) bool {
	if len(content) > 1500 {
		return false
	}
	lower := strings.ToLower(content)
	for _, sig := range blockSignals {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
