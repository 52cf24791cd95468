// Package jina provides a client for the Jina AI Reader and Search APIs.
package jina

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Jina AI operations used by the pipeline.
type Client interface {
	// Read fetches a URL via Jina Reader and returns its content as markdown.
	Read(ctx context.Context, targetURL string) (*Article, error)
	// Search performs a web search via Jina Search.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error)
}

// Article is the readable content extracted from a page.
type Article struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Tokens  int    `json:"tokens"`
}

// SearchResult is a single web search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// APIError is returned for unexpected statuses so callers can classify
// the failure by status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "jina: status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	site string
}

// WithSite restricts search results to a single domain.
func WithSite(domain string) SearchOption {
	return func(o *searchOpts) {
		o.site = domain
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithReaderBaseURL overrides the Reader base URL.
func WithReaderBaseURL(u string) Option {
	return func(c *httpClient) {
		c.readerBaseURL = u
	}
}

// WithSearchBaseURL overrides the Search base URL.
func WithSearchBaseURL(u string) Option {
	return func(c *httpClient) {
		c.searchBaseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey        string
	readerBaseURL string
	searchBaseURL string
	http          *http.Client
}

// NewClient creates a Jina AI client. The API key may be empty; Jina
// serves unauthenticated requests at a lower rate limit.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:        apiKey,
		readerBaseURL: "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type readEnvelope struct {
	Code int `json:"code"`
	Data struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Usage   struct {
			Tokens int `json:"tokens"`
		} `json:"usage"`
	} `json:"data"`
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.readerBaseURL, targetURL), nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create read request")
	}
	c.setHeaders(req)
	req.Header.Set("X-Return-Format", "markdown")

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var env readEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal read response")
	}

	return &Article{
		Title:   env.Data.Title,
		URL:     env.Data.URL,
		Content: env.Data.Content,
		Tokens:  env.Data.Usage.Tokens,
	}, nil
}

type searchEnvelope struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	so := &searchOpts{}
	for _, o := range opts {
		o(so)
	}

	reqURL := fmt.Sprintf("%s/%s", c.searchBaseURL, url.QueryEscape(query))
	if so.site != "" {
		reqURL += "?site=" + url.QueryEscape(so.site)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create search request")
	}
	c.setHeaders(req)

	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}

	// Jina answers 422 when a query yields nothing. That is an empty
	// result set, not a failure.
	if status == http.StatusUnprocessableEntity {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}

	return env.Data, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, eris.Wrap(err, "jina: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "jina: read response body")
	}
	return body, resp.StatusCode, nil
}
