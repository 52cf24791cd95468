package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-agent/internal/history"
	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/pipeline"
	"github.com/sells-group/research-agent/internal/synth"
)

type stubPlanner struct{}

func (stubPlanner) Generate(ctx context.Context, question string, chain []model.ContextEntry) (model.SearchPlan, error) {
	return model.SearchPlan{Queries: []string{question + " overview"}, Strategy: "generic"}, nil
}

type stubSearcher struct {
	block chan struct{} // optional: hold the search stage open
}

func (s *stubSearcher) Run(ctx context.Context, queries []string, target int) ([]model.SearchResult, error) {
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return []model.SearchResult{
		{Title: "Result", URL: "https://example.com/a", Snippet: "about the topic", Provider: "stub"},
	}, nil
}

type stubRanker struct{}

func (stubRanker) Rank(results []model.SearchResult, queries []string) []model.SearchResult {
	return results
}

type stubExtractor struct{}

func (stubExtractor) Run(ctx context.Context, results []model.SearchResult, target int) ([]model.ExtractedArticle, error) {
	return []model.ExtractedArticle{
		{URL: "https://example.com/a", Title: "Result", Content: strings.Repeat("body ", 30), Method: "stub"},
	}, nil
}

type stubSynth struct{}

func (stubSynth) Run(ctx context.Context, in synth.Input) (string, error) {
	return "synthesized answer", nil
}

func testServer(t *testing.T, searcher pipeline.Searcher) *Server {
	t.Helper()
	if searcher == nil {
		searcher = &stubSearcher{}
	}
	p := pipeline.New(stubPlanner{}, searcher, stubRanker{}, stubExtractor{}, stubSynth{},
		pipeline.NewContextChain(10))

	store, err := history.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewServer(context.Background(), p, store)
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_StartResearch(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := postJSON(t, h, "/research", `{"question":"solar adoption in Spain"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "running", resp.Status)

	// Poll until the run completes and the result is served.
	require.Eventually(t, func() bool {
		r := get(t, h, "/research/"+resp.ID)
		return r.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	r := get(t, h, "/research/"+resp.ID)
	var result model.ResearchResult
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &result))
	assert.Equal(t, "synthesized answer", result.Synthesis)
	assert.Equal(t, "solar adoption in Spain", result.Query)
}

func TestServer_StartValidation(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := postJSON(t, h, "/research", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h, "/research", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_StepsWhileRunning(t *testing.T) {
	searcher := &stubSearcher{block: make(chan struct{})}
	h := testServer(t, searcher).Router()

	rec := postJSON(t, h, "/research", `{"question":"held question"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// While the searcher is held open, the run reports as running with
	// its step snapshot.
	require.Eventually(t, func() bool {
		r := get(t, h, "/research/"+resp.ID)
		if r.Code != http.StatusAccepted {
			return false
		}
		var status runStatusResponse
		if err := json.Unmarshal(r.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Status == "running" && len(status.Steps) > 0
	}, 5*time.Second, 10*time.Millisecond)

	r := get(t, h, "/research/"+resp.ID+"/steps")
	assert.Equal(t, http.StatusOK, r.Code)
	var steps []model.PipelineStep
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &steps))
	assert.NotEmpty(t, steps)

	close(searcher.block)
}

func TestServer_Cancel(t *testing.T) {
	searcher := &stubSearcher{block: make(chan struct{})}
	h := testServer(t, searcher).Router()

	rec := postJSON(t, h, "/research", `{"question":"to be canceled"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	r := postJSON(t, h, "/research/"+resp.ID+"/cancel", ``)
	assert.Equal(t, http.StatusAccepted, r.Code)

	// The canceled run ends up failed, not completed.
	require.Eventually(t, func() bool {
		res := get(t, h, "/research/"+resp.ID)
		if res.Code != http.StatusOK {
			return false
		}
		var status runStatusResponse
		if err := json.Unmarshal(res.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Status == "failed"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_UnknownRun(t *testing.T) {
	h := testServer(t, nil).Router()

	assert.Equal(t, http.StatusNotFound, get(t, h, "/research/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/research/nope/steps").Code)
	assert.Equal(t, http.StatusNotFound, postJSON(t, h, "/research/nope/cancel", ``).Code)
}

func TestServer_History(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := postJSON(t, h, "/research", `{"question":"recorded question"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Eventually(t, func() bool {
		r := get(t, h, "/history")
		if r.Code != http.StatusOK {
			return false
		}
		var entries []history.Entry
		if err := json.Unmarshal(r.Body.Bytes(), &entries); err != nil {
			return false
		}
		return len(entries) == 1 && entries[0].Query == "recorded question"
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/history?limit=zero").Code)
}

func TestServer_Followup(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := postJSON(t, h, "/followup", `{"question":"and the downsides?"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Eventually(t, func() bool {
		r := get(t, h, "/research/"+resp.ID)
		return r.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	r := get(t, h, "/research/"+resp.ID)
	var result model.ResearchResult
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), &result))
	assert.True(t, result.Contextual)
}