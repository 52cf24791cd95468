package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/synth"
)

type fakePlanner struct {
	plan      model.SearchPlan
	err       error
	lastChain []model.ContextEntry
}

func (f *fakePlanner) Generate(ctx context.Context, question string, chain []model.ContextEntry) (model.SearchPlan, error) {
	f.lastChain = chain
	return f.plan, f.err
}

type fakeSearcher struct {
	results []model.SearchResult
	err     error
	onRun   func()
}

func (f *fakeSearcher) Run(ctx context.Context, queries []string, target int) ([]model.SearchResult, error) {
	if f.onRun != nil {
		f.onRun()
	}
	return f.results, f.err
}

type passRanker struct{}

func (passRanker) Rank(results []model.SearchResult, queries []string) []model.SearchResult {
	return results
}

type fakeExtractor struct {
	articles []model.ExtractedArticle
	err      error
	calls    int
}

func (f *fakeExtractor) Run(ctx context.Context, results []model.SearchResult, target int) ([]model.ExtractedArticle, error) {
	f.calls++
	return f.articles, f.err
}

type fakeSynth struct {
	answer string
	err    error
	lastIn synth.Input
}

func (f *fakeSynth) Run(ctx context.Context, in synth.Input) (string, error) {
	f.lastIn = in
	return f.answer, f.err
}

func happyPipeline() (*Pipeline, *fakePlanner, *fakeSearcher, *fakeExtractor, *fakeSynth) {
	planner := &fakePlanner{plan: model.SearchPlan{Queries: []string{"solar growth 2026"}, Strategy: "broad"}}
	searcher := &fakeSearcher{results: []model.SearchResult{
		{Title: "Report", URL: "https://example.com/r", Snippet: "growth"},
	}}
	extractor := &fakeExtractor{articles: []model.ExtractedArticle{
		{URL: "https://example.com/r", Title: "Report", Content: "Solar grew 20%.", Summary: "Solar grew 20%."},
	}}
	synthesizer := &fakeSynth{answer: "Solar grew about 20% last year."}
	p := New(planner, searcher, passRanker{}, extractor, synthesizer, NewContextChain(10))
	return p, planner, searcher, extractor, synthesizer
}

func TestResearch_HappyPath(t *testing.T) {
	p, _, _, _, _ := happyPipeline()

	result, err := p.Research(context.Background(), "How fast is solar growing?")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "How fast is solar growing?", result.Query)
	assert.Equal(t, "Solar grew about 20% last year.", result.Synthesis)
	assert.False(t, result.Contextual)
	assert.Equal(t, 1, result.Stats.SearchResults)
	assert.Equal(t, 1, result.Stats.Articles)
	assert.Contains(t, result.Stats.StepMS, string(model.StepSearch))
}

func TestResearch_PushesDigestToChain(t *testing.T) {
	p, _, _, _, _ := happyPipeline()

	_, err := p.Research(context.Background(), "How fast is solar growing?")
	require.NoError(t, err)

	entries := p.Chain().Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "research", entries[0].Kind)
	assert.Contains(t, entries[0].Summary, "Solar grew")
}

func TestFollowup_FeedsChainToPlannerAndSynth(t *testing.T) {
	p, planner, _, _, synthesizer := happyPipeline()

	_, err := p.Research(context.Background(), "How fast is solar growing?")
	require.NoError(t, err)

	result, err := p.Followup(context.Background(), "what are the risks?")
	require.NoError(t, err)
	assert.True(t, result.Contextual)
	require.Len(t, planner.lastChain, 1)
	assert.Equal(t, "How fast is solar growing?", planner.lastChain[0].Query)
	require.Len(t, synthesizer.lastIn.Chain, 1)
	assert.Equal(t, "How fast is solar growing?", result.ContextOf)
	assert.Contains(t, result.Stats.StepMS, string(model.StepContext))
}

func TestFollowup_EmptyChainActsLikeResearch(t *testing.T) {
	p, planner, _, _, _ := happyPipeline()

	result, err := p.Followup(context.Background(), "standalone question")
	require.NoError(t, err)
	assert.True(t, result.Contextual)
	assert.Empty(t, planner.lastChain)
}

func TestResearch_SearchFailureMarksStep(t *testing.T) {
	p, _, searcher, extractor, _ := happyPipeline()
	searcher.err = errors.New("all providers down")

	run := p.Start(context.Background(), "question", false)
	_, err := run.Wait()
	require.Error(t, err)

	var searchStep model.PipelineStep
	for _, s := range run.Steps() {
		if s.ID == model.StepSearch {
			searchStep = s
		}
	}
	assert.Equal(t, model.StepError, searchStep.State)
	assert.Zero(t, extractor.calls, "scraping never runs after search fails")
}

func TestResearch_CancelDuringSearchSkipsScraping(t *testing.T) {
	p, _, searcher, extractor, _ := happyPipeline()

	var run *Run
	started := make(chan struct{})
	searcher.onRun = func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
	}

	run = p.Start(context.Background(), "question", false)
	<-started
	run.Cancel()

	_, err := run.Wait()
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Zero(t, extractor.calls)

	for _, s := range run.Steps() {
		switch s.ID {
		case model.StepScraping, model.StepSynthesis:
			assert.Equal(t, model.StepWaiting, s.State, "step %s stays waiting after cancel", s.ID)
		}
	}
}

func TestResearch_ParentContextCancellation(t *testing.T) {
	p, _, searcher, _, _ := happyPipeline()
	ctx, cancel := context.WithCancel(context.Background())
	searcher.onRun = func() { cancel() }

	_, err := p.Research(ctx, "question")
	require.ErrorIs(t, err, ErrInterrupted)
}

func TestResearch_EmptyResultsStillSynthesizes(t *testing.T) {
	p, _, searcher, extractor, synthesizer := happyPipeline()
	searcher.results = nil
	extractor.articles = nil
	synthesizer.answer = "No relevant sources were found."

	result, err := p.Research(context.Background(), "obscure question")
	require.NoError(t, err)
	assert.Zero(t, result.Stats.SearchResults)
	assert.Contains(t, result.Synthesis, "No relevant sources")
}

func TestRun_StepsSnapshotWhileRunning(t *testing.T) {
	p, _, searcher, _, _ := happyPipeline()

	gate := make(chan struct{})
	searcher.onRun = func() { <-gate }

	run := p.Start(context.Background(), "question", false)
	// Wait until search goes active.
	require.Eventually(t, func() bool {
		for _, s := range run.Steps() {
			if s.ID == model.StepSearch && s.State == model.StepActive {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	close(gate)
	_, err := run.Wait()
	require.NoError(t, err)

	for _, s := range run.Steps() {
		assert.Equal(t, model.StepCompleted, s.State)
	}
}
