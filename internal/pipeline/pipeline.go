// Package pipeline orchestrates a research run: plan, search, read,
// synthesize. Each run tracks its steps through a Controller and can be
// stopped cooperatively between stages.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/synth"
)

// Planner produces a search plan for a question.
type Planner interface {
	Generate(ctx context.Context, question string, chain []model.ContextEntry) (model.SearchPlan, error)
}

// Searcher runs plan queries and returns merged results.
type Searcher interface {
	Run(ctx context.Context, queries []string, target int) ([]model.SearchResult, error)
}

// Ranker orders results by relevance to the plan.
type Ranker interface {
	Rank(results []model.SearchResult, queries []string) []model.SearchResult
}

// Extractor turns ranked results into article content.
type Extractor interface {
	Run(ctx context.Context, results []model.SearchResult, target int) ([]model.ExtractedArticle, error)
}

// Synthesizer writes the final answer.
type Synthesizer interface {
	Run(ctx context.Context, in synth.Input) (string, error)
}

// Pipeline wires the stages together. Safe for concurrent runs; the
// context chain is shared across them.
type Pipeline struct {
	planner     Planner
	searcher    Searcher
	ranker      Ranker
	extractor   Extractor
	synthesizer Synthesizer
	chain       *ContextChain

	targetResults  int
	targetArticles int
	chainDepth     int

	log *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTargetResults sets how many search results a run gathers.
func WithTargetResults(n int) Option {
	return func(p *Pipeline) {
		p.targetResults = n
	}
}

// WithTargetArticles sets how many articles a run extracts.
func WithTargetArticles(n int) Option {
	return func(p *Pipeline) {
		p.targetArticles = n
	}
}

// WithChainDepth sets how many prior digests feed a follow-up.
func WithChainDepth(n int) Option {
	return func(p *Pipeline) {
		p.chainDepth = n
	}
}

// New creates a Pipeline.
func New(planner Planner, searcher Searcher, ranker Ranker, extractor Extractor, synthesizer Synthesizer, chain *ContextChain, opts ...Option) *Pipeline {
	p := &Pipeline{
		planner:        planner,
		searcher:       searcher,
		ranker:         ranker,
		extractor:      extractor,
		synthesizer:    synthesizer,
		chain:          chain,
		targetResults:  10,
		targetArticles: 5,
		chainDepth:     5,
		log:            zap.L().Named("pipeline"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Chain exposes the session context chain.
func (p *Pipeline) Chain() *ContextChain { return p.chain }

// Run is one in-flight or finished research run.
type Run struct {
	ID         string
	Question   string
	Contextual bool
	StartedAt  time.Time

	ctrl   *Controller
	done   chan struct{}
	result *model.ResearchResult
	err    error
}

// Steps returns a snapshot of the run's step states.
func (r *Run) Steps() []model.PipelineStep { return r.ctrl.Snapshot() }

// Cancel requests a cooperative stop.
func (r *Run) Cancel() { r.ctrl.Cancel() }

// Done is closed when the run finishes.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run finishes and returns its outcome.
func (r *Run) Wait() (*model.ResearchResult, error) {
	<-r.done
	return r.result, r.err
}

// Research runs the pipeline for a fresh question and blocks until done.
func (p *Pipeline) Research(ctx context.Context, question string) (*model.ResearchResult, error) {
	return p.Start(ctx, question, false).Wait()
}

// Followup runs the pipeline for a question that continues the session.
// With an empty chain it behaves like fresh research.
func (p *Pipeline) Followup(ctx context.Context, question string) (*model.ResearchResult, error) {
	return p.Start(ctx, question, true).Wait()
}

// Start launches a run asynchronously. Callers observe it through the
// returned Run.
func (p *Pipeline) Start(ctx context.Context, question string, contextual bool) *Run {
	ids := []model.StepID{model.StepPlan, model.StepSearch, model.StepScraping, model.StepSynthesis}
	if contextual {
		ids = append([]model.StepID{model.StepContext}, ids...)
	}

	run := &Run{
		ID:         uuid.NewString(),
		Question:   question,
		Contextual: contextual,
		StartedAt:  time.Now(),
		ctrl:       NewController(ids...),
		done:       make(chan struct{}),
	}

	runCtx := run.ctrl.Bind(ctx)
	go func() {
		defer close(run.done)
		run.result, run.err = p.execute(runCtx, run)
	}()
	return run
}

func (p *Pipeline) execute(ctx context.Context, run *Run) (*model.ResearchResult, error) {
	log := p.log.With(zap.String("run_id", run.ID), zap.Bool("contextual", run.Contextual))
	log.Info("run started", zap.String("question", run.Question))

	stepMS := make(map[string]int64)
	track := func(id model.StepID) {
		stepMS[string(id)] = run.ctrl.StepDuration(id).Milliseconds()
	}

	// Context recall only exists on follow-up runs.
	var chainEntries []model.ContextEntry
	if run.Contextual {
		if err := p.stage(ctx, run, model.StepContext, func() error {
			chainEntries = p.chain.Recent(p.chainDepth)
			return nil
		}); err != nil {
			return nil, err
		}
		track(model.StepContext)
	}

	var searchPlan model.SearchPlan
	if err := p.stage(ctx, run, model.StepPlan, func() error {
		var err error
		searchPlan, err = p.planner.Generate(ctx, run.Question, chainEntries)
		return err
	}); err != nil {
		return nil, err
	}
	track(model.StepPlan)

	var ranked []model.SearchResult
	if err := p.stage(ctx, run, model.StepSearch, func() error {
		results, err := p.searcher.Run(ctx, searchPlan.Queries, p.targetResults)
		if err != nil {
			return err
		}
		ranked = p.ranker.Rank(results, searchPlan.Queries)
		return nil
	}); err != nil {
		return nil, err
	}
	track(model.StepSearch)

	var articles []model.ExtractedArticle
	if err := p.stage(ctx, run, model.StepScraping, func() error {
		var err error
		articles, err = p.extractor.Run(ctx, ranked, p.targetArticles)
		return err
	}); err != nil {
		return nil, err
	}
	track(model.StepScraping)

	var synthesis string
	if err := p.stage(ctx, run, model.StepSynthesis, func() error {
		var err error
		synthesis, err = p.synthesizer.Run(ctx, synth.Input{
			Question: run.Question,
			Plan:     searchPlan,
			Results:  ranked,
			Articles: articles,
			Chain:    chainEntries,
		})
		return err
	}); err != nil {
		return nil, err
	}
	track(model.StepSynthesis)

	result := &model.ResearchResult{
		ID:            run.ID,
		Query:         run.Question,
		Plan:          searchPlan,
		SearchResults: ranked,
		Articles:      articles,
		Synthesis:     synthesis,
		Contextual:    run.Contextual,
		CreatedAt:     time.Now(),
		Stats: model.Stats{
			SearchResults: len(ranked),
			Articles:      len(articles),
			QueriesUsed:   len(searchPlan.Queries),
			DurationMS:    time.Since(run.StartedAt).Milliseconds(),
			StepMS:        stepMS,
		},
	}

	kind := "research"
	if run.Contextual {
		kind = "followup"
		if len(chainEntries) > 0 {
			result.ContextOf = chainEntries[len(chainEntries)-1].Query
		}
	}
	p.chain.Push(kind, run.Question, result.Digest(model.SummaryLen))

	log.Info("run finished",
		zap.Int("results", result.Stats.SearchResults),
		zap.Int("articles", result.Stats.Articles),
		zap.Int64("duration_ms", result.Stats.DurationMS),
	)
	return result, nil
}

// stage runs one step under the controller: the cancellation check
// happens before the step begins, so a stopped run leaves later steps
// waiting rather than failed.
func (p *Pipeline) stage(ctx context.Context, run *Run, id model.StepID, fn func() error) error {
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err := run.ctrl.Begin(id); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if ctx.Err() != nil {
			_ = run.ctrl.Fail(id, "interrupted")
			return ErrInterrupted
		}
		_ = run.ctrl.Fail(id, err.Error())
		return eris.Wrapf(err, "pipeline: step %s", id)
	}
	if ctx.Err() != nil {
		_ = run.ctrl.Fail(id, "interrupted")
		return ErrInterrupted
	}
	return run.ctrl.Complete(id)
}
