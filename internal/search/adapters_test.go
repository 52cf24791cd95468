package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/research-agent/pkg/serpapi"
	"github.com/sells-group/research-agent/pkg/serper"
)

type fakeSerpAPI struct {
	resp *serpapi.SearchResponse
	err  error
}

func (f *fakeSerpAPI) Search(ctx context.Context, query string, opts ...serpapi.SearchOption) (*serpapi.SearchResponse, error) {
	return f.resp, f.err
}

type fakeSerper struct {
	resp *serper.SearchResponse
	err  error
}

func (f *fakeSerper) Search(ctx context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	return f.resp, f.err
}

func TestSerpAPIProvider_MapsResults(t *testing.T) {
	fake := &fakeSerpAPI{resp: &serpapi.SearchResponse{
		OrganicResults: []serpapi.OrganicResult{
			{Position: 1, Title: "One", Link: "https://one.example.com", Snippet: "first"},
			{Position: 2, Title: "Two", Link: "https://two.example.com", Snippet: "second"},
		},
	}}

	p := NewSerpAPIProvider(fake)
	require.True(t, p.Available())

	results, err := p.Search(context.Background(), "q", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "serpapi", results[0].Provider)
	assert.Equal(t, "https://one.example.com", results[0].URL)
}

func TestSerpAPIProvider_NilClientUnavailable(t *testing.T) {
	p := NewSerpAPIProvider(nil)
	assert.False(t, p.Available())
}

func TestSerpAPIProvider_BreakerTripsOnAuthFailures(t *testing.T) {
	fake := &fakeSerpAPI{err: &serpapi.APIError{StatusCode: 401}}
	p := NewSerpAPIProvider(fake)

	for range 3 {
		_, err := p.Search(context.Background(), "q", 5)
		require.Error(t, err)
	}
	assert.False(t, p.Available())
}

func TestSerperProvider_MapsAndLimits(t *testing.T) {
	fake := &fakeSerper{resp: &serper.SearchResponse{
		Organic: []serper.OrganicResult{
			{Title: "A", Link: "https://a.example.com", Snippet: "a", Position: 1},
			{Title: "B", Link: "https://b.example.com", Snippet: "b", Position: 2},
			{Title: "C", Link: "https://c.example.com", Snippet: "c", Position: 3},
		},
	}}

	p := NewSerperProvider(fake)
	results, err := p.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "serper", results[0].Provider)
}
