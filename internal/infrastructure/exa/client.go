package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dealscout/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds Exa client settings
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	NumResults    int
	RatePerSecond float64
}

// Client handles communication with the Exa search API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	numResults  int
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

type searchRequest struct {
	Query      string `json:"query,omitempty"`
	URL        string `json:"url,omitempty"`
	NumResults int    `json:"numResults"`
}

type contentsRequest struct {
	URLs   []string       `json:"urls"`
	Text   bool           `json:"text"`
	Extras map[string]int `json:"extras,omitempty"`
}

type result struct {
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Score  *float64 `json:"score"`
	Text   string   `json:"text"`
	Image  string   `json:"image"`
	Extras struct {
		ImageLinks []string `json:"imageLinks"`
	} `json:"extras"`
}

type response struct {
	Results []result `json:"results"`
}

// NewClient creates a new Exa client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	numResults := cfg.NumResults
	if numResults <= 0 {
		numResults = 5
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.exa.ai"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		numResults:  numResults,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), 5),
		logger:      logger.Named("exa"),
	}
}

// post sends a JSON request and decodes the results list.
// A 422 carrying FETCH_DOCUMENT_ERROR maps to domain.ErrFetchDocument.
func (c *Client) post(ctx context.Context, path string, body any) ([]result, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: exa rate limiter: %v", domain.ErrUpstreamUnavailable, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: exa %s: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: exa %s: reading body: %v", domain.ErrUpstreamUnavailable, path, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("exa returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		if resp.StatusCode == http.StatusUnprocessableEntity && bytes.Contains(respBody, []byte("FETCH_DOCUMENT_ERROR")) {
			return nil, domain.ErrFetchDocument
		}
		return nil, fmt.Errorf("%w: exa %s status %d", domain.ErrUpstreamUnavailable, path, resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: exa %s: decoding response: %v", domain.ErrUpstreamUnavailable, path, err)
	}
	return parsed.Results, nil
}

// Search runs a free-text search
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	c.logger.Info("search", zap.String("query", query))

	results, err := c.post(ctx, "/search", searchRequest{Query: query, NumResults: c.numResults})
	if err != nil {
		return nil, err
	}
	return toHits(results), nil
}

// FindSimilar returns pages similar to url
func (c *Client) FindSimilar(ctx context.Context, url string, numResults int) ([]domain.SearchHit, error) {
	if numResults <= 0 {
		numResults = c.numResults
	}
	c.logger.Info("find similar", zap.String("url", url), zap.Int("num_results", numResults))

	results, err := c.post(ctx, "/findSimilar", searchRequest{URL: url, NumResults: numResults})
	if err != nil {
		return nil, err
	}
	return toHits(results), nil
}

// Contents fetches page text and image links for urls
func (c *Client) Contents(ctx context.Context, urls []string) ([]domain.PageContent, error) {
	if len(urls) == 0 {
		return []domain.PageContent{}, nil
	}

	results, err := c.post(ctx, "/contents", contentsRequest{
		URLs:   urls,
		Text:   true,
		Extras: map[string]int{"imageLinks": 3},
	})
	if err != nil {
		return nil, err
	}

	contents := make([]domain.PageContent, 0, len(results))
	for _, r := range results {
		page := domain.PageContent{URL: r.URL, Title: r.Title, Text: r.Text}
		if r.Image != "" {
			page.ImageURLs = append(page.ImageURLs, r.Image)
		}
		page.ImageURLs = append(page.ImageURLs, r.Extras.ImageLinks...)
		contents = append(contents, page)
	}
	return contents, nil
}

func toHits(results []result) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(results))
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		hit := domain.SearchHit{Title: r.Title, URL: r.URL}
		if r.Score != nil {
			hit.Score = *r.Score
		}
		hits = append(hits, hit)
	}
	return hits
}
