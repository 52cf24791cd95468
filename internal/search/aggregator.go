package search

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/research-agent/internal/model"
)

// Aggregator runs a plan's queries against an ordered provider chain and
// merges the results.
type Aggregator struct {
	providers   []Provider
	perQuery    int
	concurrency int
	log         *zap.Logger
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithPerQueryLimit sets how many results each provider call asks for.
func WithPerQueryLimit(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.perQuery = n
	}
}

// WithConcurrency bounds how many queries run at once.
func WithConcurrency(n int) AggregatorOption {
	return func(a *Aggregator) {
		a.concurrency = n
	}
}

// NewAggregator creates an Aggregator over providers, tried in order.
func NewAggregator(providers []Provider, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		providers:   providers,
		perQuery:    10,
		concurrency: 3,
		log:         zap.L().Named("search"),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run executes every plan query and returns at most target merged results.
//
// Queries fan out concurrently; per query the provider chain is walked in
// order and the first provider that answers with results wins. Once
// enough results have been seen, queries that have not started yet are
// skipped. The merged set is deduplicated by canonical URL, first query
// in plan order wins, and is independent of query completion timing.
//
// A fully failed run returns an empty slice and a nil error: no results
// is an honest answer, never padded with fabricated links.
func (a *Aggregator) Run(ctx context.Context, queries []string, target int) ([]model.SearchResult, error) {
	if target <= 0 || len(queries) == 0 {
		return nil, nil
	}

	perQuery := make([][]model.SearchResult, len(queries))

	var seen atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, q := range queries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			// Enough candidates already gathered; skip the leftover
			// queries entirely.
			if seen.Load() >= int64(target) {
				return nil
			}
			results := a.searchOne(gctx, NormalizeQuery(q))
			perQuery[i] = results
			seen.Add(int64(len(results)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Merge in plan order so membership does not depend on scheduling.
	merged := make([]model.SearchResult, 0, target)
	dedup := make(map[string]bool)
	for _, results := range perQuery {
		for _, r := range results {
			if len(merged) >= target {
				return merged, nil
			}
			if !ValidResultURL(r.URL) {
				continue
			}
			key := CanonicalURL(r.URL)
			if dedup[key] {
				continue
			}
			dedup[key] = true
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 {
		a.log.Warn("no results from any provider", zap.Int("queries", len(queries)))
	}
	return merged, nil
}

// searchOne walks the provider chain for a single query. Failures and
// empty answers fall through to the next provider; partial answers are
// kept and topped up. A provider answering with at least half the
// per-query limit is sufficient and halts the chain, saving quota on
// the providers behind it.
func (a *Aggregator) searchOne(ctx context.Context, query string) []model.SearchResult {
	sufficient := a.perQuery / 2
	if sufficient < 1 {
		sufficient = 1
	}

	var collected []model.SearchResult
	for _, p := range a.providers {
		if !p.Available() {
			continue
		}
		if ctx.Err() != nil {
			return collected
		}

		results, err := p.Search(ctx, query, a.perQuery)
		if err != nil {
			a.log.Warn("provider failed",
				zap.String("provider", p.Name()),
				zap.String("query", query),
				zap.Error(err),
			)
			continue
		}
		if len(results) == 0 {
			continue
		}

		a.log.Debug("provider answered",
			zap.String("provider", p.Name()),
			zap.String("query", query),
			zap.Int("results", len(results)),
		)
		collected = append(collected, results...)
		if len(results) >= sufficient {
			break
		}
	}
	return collected
}
