package jina

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_ReturnsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/https://example.com/article", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))

		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": {
				"title": "Example Article",
				"url": "https://example.com/article",
				"content": "# Heading\n\nBody text.",
				"usage": {"tokens": 42}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithReaderBaseURL(srv.URL))
	art, err := c.Read(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	assert.Equal(t, "Example Article", art.Title)
	assert.Contains(t, art.Content, "Body text.")
	assert.Equal(t, 42, art.Tokens)
}

func TestRead_APIErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithReaderBaseURL(srv.URL))
	_, err := c.Read(context.Background(), "https://example.com")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestSearch_ReturnsResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"code": 200,
			"data": [
				{"title": "Result One", "url": "https://one.example.com", "description": "first"},
				{"title": "Result Two", "url": "https://two.example.com", "description": "second"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithSearchBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "renewable energy")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://one.example.com", results[0].URL)
}

func TestSearch_NoResultsIs422(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithSearchBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "zxqwv nonsense")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NoAuthHeaderWithoutKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"code": 200, "data": []}`))
	}))
	defer srv.Close()

	c := NewClient("", WithSearchBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "anything")
	require.NoError(t, err)
}
