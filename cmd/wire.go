package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/config"
	"github.com/sells-group/research-agent/internal/extract"
	"github.com/sells-group/research-agent/internal/genai"
	"github.com/sells-group/research-agent/internal/history"
	"github.com/sells-group/research-agent/internal/lang"
	"github.com/sells-group/research-agent/internal/pipeline"
	"github.com/sells-group/research-agent/internal/plan"
	"github.com/sells-group/research-agent/internal/rank"
	"github.com/sells-group/research-agent/internal/search"
	"github.com/sells-group/research-agent/internal/synth"
	"github.com/sells-group/research-agent/pkg/anthropic"
	"github.com/sells-group/research-agent/pkg/jina"
	"github.com/sells-group/research-agent/pkg/perplexity"
	"github.com/sells-group/research-agent/pkg/serpapi"
	"github.com/sells-group/research-agent/pkg/serper"
)

// buildPipeline assembles the full pipeline from configuration: provider
// chain, extraction chain, generative backend, ranking, and session
// context chain.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	registry := search.NewRegistry()

	if cfg.SerpAPI.Key != "" {
		client := serpapi.NewClient(cfg.SerpAPI.Key,
			serpapi.WithBaseURL(cfg.SerpAPI.BaseURL),
			serpapi.WithEngine(cfg.SerpAPI.Engine),
		)
		if err := registry.Register(search.NewSerpAPIProvider(client)); err != nil {
			return nil, err
		}
	} else {
		if err := registry.Register(search.NewSerpAPIProvider(nil)); err != nil {
			return nil, err
		}
	}

	if cfg.Serper.Key != "" {
		client := serper.NewClient(cfg.Serper.Key, serper.WithBaseURL(cfg.Serper.BaseURL))
		if err := registry.Register(search.NewSerperProvider(client)); err != nil {
			return nil, err
		}
	} else {
		if err := registry.Register(search.NewSerperProvider(nil)); err != nil {
			return nil, err
		}
	}

	// Jina serves keyless requests at a lower rate limit, so it is always
	// registered.
	jinaClient := jina.NewClient(cfg.Jina.Key,
		jina.WithReaderBaseURL(cfg.Jina.BaseURL),
		jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL),
	)
	if err := registry.Register(search.NewJinaProvider(jinaClient)); err != nil {
		return nil, err
	}
	if err := registry.Register(search.NewDuckDuckGoProvider()); err != nil {
		return nil, err
	}

	sources, err := search.LoadSources(cfg.Search.SourcesFile)
	if err != nil {
		return nil, err
	}
	providers := registry.Ordered(sources.Order())
	if len(providers) == 0 {
		return nil, eris.New("no search providers enabled")
	}

	aggregator := search.NewAggregator(providers,
		search.WithPerQueryLimit(cfg.Search.PerQuery),
		search.WithConcurrency(cfg.Search.Concurrency),
	)

	var methods []extract.Method
	switch cfg.Extract.Method {
	case "reader":
		methods = []extract.Method{extract.NewReaderMethod(jinaClient)}
	case "local":
		methods = []extract.Method{extract.NewLocalMethod()}
	default:
		methods = []extract.Method{extract.NewReaderMethod(jinaClient), extract.NewLocalMethod()}
	}

	extractorOpts := []extract.ExtractorOption{extract.WithWorkers(cfg.Extract.Workers)}
	if len(cfg.Extract.Languages) > 0 {
		gate := lang.NewGate(lang.NewLexicalDetector(), cfg.Extract.Languages)
		extractorOpts = append(extractorOpts, extract.WithLanguageGate(gate))
	}
	extractor := extract.NewExtractor(methods, extractorOpts...)

	backend := buildBackend(cfg)
	if backend == nil {
		zap.L().Warn("no generative backend configured, using deterministic fallbacks")
	}

	return pipeline.New(
		plan.NewGenerator(backend),
		aggregator,
		rank.New(),
		extractor,
		synth.NewSynthesizer(backend),
		pipeline.NewContextChain(cfg.Pipeline.ChainCap),
		pipeline.WithTargetResults(cfg.Search.TargetResults),
		pipeline.WithTargetArticles(cfg.Extract.TargetArticles),
		pipeline.WithChainDepth(cfg.Pipeline.ChainDepth),
	), nil
}

// buildBackend picks the generative backend: Anthropic when configured,
// Perplexity as the alternative, nil when neither has a key.
func buildBackend(cfg *config.Config) genai.Backend {
	if cfg.Anthropic.Key != "" {
		return genai.NewAnthropicBackend(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	}
	if cfg.Perplexity.Key != "" {
		client := perplexity.NewClient(cfg.Perplexity.Key,
			perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
			perplexity.WithModel(cfg.Perplexity.Model),
		)
		return genai.NewPerplexityBackend(client)
	}
	return nil
}

// openHistory opens the configured history store.
func openHistory(ctx context.Context) (history.Store, error) {
	switch cfg.History.Driver {
	case "postgres":
		return history.NewPostgres(ctx, cfg.History.DatabaseURL)
	default:
		return history.NewSQLite(cfg.History.Path)
	}
}
