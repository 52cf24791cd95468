// Package lang provides lightweight language detection for the extraction
// gate. Detection is heuristic: function-word frequency for Latin-script
// languages, Unicode script ranges otherwise. It runs on every extracted
// article, so it must be cheap and allocation-light.
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Detector identifies the dominant language of a text sample.
type Detector interface {
	// Detect returns the best-guess language tag and a confidence in [0,1].
	// language.Und with confidence 0 means the sample was inconclusive.
	Detect(text string) (language.Tag, float64)
}

// functionWords are high-frequency words that discriminate between the
// Latin-script languages we care about. Lists are intentionally short;
// a handful of hits on a few hundred words of text is a strong signal.
var functionWords = map[language.Tag][]string{
	language.English: {"the", "and", "of", "to", "in", "is", "that", "for", "with", "was", "are", "this"},
	language.French:  {"le", "la", "les", "des", "une", "est", "que", "dans", "pour", "avec", "sur", "pas"},
	language.Spanish: {"el", "los", "las", "una", "es", "que", "en", "por", "para", "con", "del", "se"},
	language.German:  {"der", "die", "das", "und", "ist", "ein", "eine", "mit", "von", "nicht", "auf", "den"},
	language.Italian: {"il", "di", "che", "e", "la", "per", "un", "sono", "con", "del", "non", "una"},
}

// LexicalDetector implements Detector without external services.
type LexicalDetector struct {
	// MaxSample bounds how much of the text is inspected. Zero means 2000.
	MaxSample int
}

// NewLexicalDetector returns a detector with default sampling.
func NewLexicalDetector() *LexicalDetector {
	return &LexicalDetector{}
}

// Detect scores the sample against each language's function-word list and
// against non-Latin script ranges. The highest score wins; ties and weak
// signals resolve to language.Und so callers can fail open.
func (d *LexicalDetector) Detect(text string) (language.Tag, float64) {
	sample := text
	maxSample := d.MaxSample
	if maxSample <= 0 {
		maxSample = 2000
	}
	if len(sample) > maxSample {
		// Cut on a rune boundary.
		cut := maxSample
		for cut > 0 && !isRuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}

	if tag, conf := detectScript(sample); tag != language.Und {
		return tag, conf
	}

	words := tokenize(sample)
	if len(words) < 5 {
		return language.Und, 0
	}

	best, runnerUp := language.Und, 0
	bestHits := 0
	for tag, fws := range functionWords {
		hits := 0
		for _, w := range words {
			for _, fw := range fws {
				if w == fw {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			runnerUp = bestHits
			bestHits = hits
			best = tag
		} else if hits > runnerUp {
			runnerUp = hits
		}
	}

	// Require a real margin: at least 2% of words are function words of the
	// winner and the winner leads the runner-up.
	if bestHits == 0 || bestHits == runnerUp || bestHits*50 < len(words) {
		return language.Und, 0
	}

	conf := float64(bestHits) / float64(len(words)) * 10
	if conf > 1 {
		conf = 1
	}
	return best, conf
}

// detectScript classifies text dominated by a non-Latin script. Latin text
// returns Und so the lexical pass decides.
func detectScript(s string) (language.Tag, float64) {
	var total, han, cyr, arab, heb, kana, hangul int
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		total++
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Cyrillic, r):
			cyr++
		case unicode.Is(unicode.Arabic, r):
			arab++
		case unicode.Is(unicode.Hebrew, r):
			heb++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		}
	}
	if total < 10 {
		return language.Und, 0
	}

	frac := func(n int) float64 { return float64(n) / float64(total) }
	switch {
	case frac(kana) > 0.1:
		return language.Japanese, frac(kana + han)
	case frac(hangul) > 0.3:
		return language.Korean, frac(hangul)
	case frac(han) > 0.3:
		return language.Chinese, frac(han)
	case frac(cyr) > 0.3:
		return language.Russian, frac(cyr)
	case frac(arab) > 0.3:
		return language.Arabic, frac(arab)
	case frac(heb) > 0.3:
		return language.Hebrew, frac(heb)
	}
	return language.Und, 0
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// Gate decides whether an article passes the language filter.
type Gate struct {
	detector Detector
	accept   map[string]bool
}

// NewGate builds a gate that accepts the given base languages ("en", "fr").
// An empty accept list admits everything.
func NewGate(detector Detector, accept []string) *Gate {
	m := make(map[string]bool, len(accept))
	for _, a := range accept {
		m[strings.ToLower(strings.TrimSpace(a))] = true
	}
	return &Gate{detector: detector, accept: m}
}

// Allow reports whether the text passes. Inconclusive detection fails open:
// an article is only rejected on a confident mismatch.
func (g *Gate) Allow(text string) bool {
	if len(g.accept) == 0 {
		return true
	}
	tag, conf := g.detector.Detect(text)
	if tag == language.Und || conf < 0.2 {
		return true
	}
	base, _ := tag.Base()
	return g.accept[base.String()]
}
