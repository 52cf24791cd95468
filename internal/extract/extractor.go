package extract

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/research-agent/internal/lang"
	"github.com/sells-group/research-agent/internal/model"
)

// Extractor runs the method chain over ranked search results until enough
// articles have been gathered.
type Extractor struct {
	methods []Method
	gate    *lang.Gate
	workers int

	// Per-host politeness: one request per interval per origin.
	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
	perHost   rate.Limit

	log *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithWorkers bounds how many URLs are processed at once.
func WithWorkers(n int) ExtractorOption {
	return func(e *Extractor) {
		e.workers = n
	}
}

// WithLanguageGate installs a language filter on extracted articles.
func WithLanguageGate(g *lang.Gate) ExtractorOption {
	return func(e *Extractor) {
		e.gate = g
	}
}

// WithPerHostRate sets the request rate allowed per origin.
func WithPerHostRate(r rate.Limit) ExtractorOption {
	return func(e *Extractor) {
		e.perHost = r
	}
}

// NewExtractor creates an Extractor over methods, tried in order per URL.
func NewExtractor(methods []Method, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		methods:  methods,
		workers:  3,
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(1), // one request per second per origin
		log:      zap.L().Named("extract"),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run extracts articles from the results until target articles pass the
// content bounds, considering at most twice that many candidate URLs.
// Failed URLs are skipped, never fatal; an empty return with nil error
// means nothing could be extracted.
func (e *Extractor) Run(ctx context.Context, results []model.SearchResult, target int) ([]model.ExtractedArticle, error) {
	if target <= 0 || len(results) == 0 {
		return nil, nil
	}

	candidates := results
	if len(candidates) > 2*target {
		candidates = candidates[:2*target]
	}

	perCandidate := make([]*model.ExtractedArticle, len(candidates))

	var got atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, res := range candidates {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if got.Load() >= int64(target) {
				return nil
			}
			if err := e.waitHost(gctx, res.URL); err != nil {
				return nil
			}
			if art := e.extractOne(gctx, res); art != nil {
				perCandidate[i] = art
				got.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Collect in candidate order so the output tracks the ranking.
	articles := make([]model.ExtractedArticle, 0, target)
	for _, art := range perCandidate {
		if art == nil {
			continue
		}
		if len(articles) >= target {
			break
		}
		articles = append(articles, *art)
	}
	return articles, nil
}

// extractOne walks the method chain for a single result. A method that
// errors or returns thin content falls through to the next one.
func (e *Extractor) extractOne(ctx context.Context, res model.SearchResult) *model.ExtractedArticle {
	for _, m := range e.methods {
		if !m.Available() {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		art, err := m.Extract(ctx, res.URL)
		if err != nil {
			e.log.Debug("method failed",
				zap.String("method", m.Name()),
				zap.String("url", res.URL),
				zap.Error(err),
			)
			continue
		}

		art.Content = strings.TrimSpace(art.Content)
		if len(art.Content) < model.MinContentLen {
			continue
		}
		if e.gate != nil && !e.gate.Allow(langSample(art.Title, art.Content)) {
			e.log.Debug("language gate rejected article", zap.String("url", res.URL))
			return nil
		}

		if art.Title == "" {
			art.Title = res.Title
		}
		art.Content = cutAtWord(art.Content, model.MaxContentLen)
		art.Summary = cutAtWord(art.Content, model.SummaryLen)
		return art
	}
	return nil
}

// waitHost enforces per-origin politeness spacing.
func (e *Extractor) waitHost(ctx context.Context, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}

	e.limiterMu.Lock()
	lim, ok := e.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(e.perHost, 1)
		e.limiters[u.Host] = lim
	}
	e.limiterMu.Unlock()

	return lim.Wait(ctx)
}

// langSample is what the language gate inspects: the title plus the
// leading slice of content. Short and cheap, and enough signal for the
// lexical detector.
func langSample(title, content string) string {
	return strings.TrimSpace(title + " " + cutAtWord(content, model.SummaryLen))
}

// cutAtWord truncates s to at most n bytes, ending on a word boundary.
func cutAtWord(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := strings.LastIndex(s[:n], " ")
	if cut <= 0 {
		cut = n
	}
	return s[:cut]
}
