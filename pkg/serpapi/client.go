// Package serpapi provides a client for the SerpAPI Google search API.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const (
	defaultBaseURL = "https://serpapi.com"
	defaultEngine  = "google"
)

// Client performs web searches via SerpAPI.
type Client interface {
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// SearchResponse is the subset of the SerpAPI response the pipeline uses.
type SearchResponse struct {
	SearchMetadata SearchMetadata  `json:"search_metadata"`
	OrganicResults []OrganicResult `json:"organic_results"`
}

// SearchMetadata carries request status from SerpAPI.
type SearchMetadata struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrganicResult is a single organic search result.
type OrganicResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// APIError is returned for non-200 responses so callers can classify
// the failure by status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "serpapi: status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// SearchOption configures a single search request.
type SearchOption func(url.Values)

// WithNum sets the requested result count.
func WithNum(n int) SearchOption {
	return func(v url.Values) {
		v.Set("num", strconv.Itoa(n))
	}
}

// WithLanguage sets the interface language (hl parameter).
func WithLanguage(hl string) SearchOption {
	return func(v url.Values) {
		v.Set("hl", hl)
	}
}

// WithCountry sets the country for the search (gl parameter).
func WithCountry(gl string) SearchOption {
	return func(v url.Values) {
		v.Set("gl", gl)
	}
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithEngine overrides the default search engine.
func WithEngine(engine string) Option {
	return func(c *httpClient) {
		c.engine = engine
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	engine  string
	http    *http.Client
}

// NewClient creates a SerpAPI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		engine:  defaultEngine,
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

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	params := url.Values{}
	params.Set("engine", c.engine)
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	for _, o := range opts {
		o(params)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}

	return &result, nil
}
