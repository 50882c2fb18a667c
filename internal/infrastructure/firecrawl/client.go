package firecrawl

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

// Config holds Firecrawl client settings
type Config struct {
	APIKey        string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// Client handles communication with the Firecrawl scrape API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    struct {
		Markdown string         `json:"markdown"`
		RawHTML  string         `json:"rawHtml"`
		Metadata map[string]any `json:"metadata"`
	} `json:"data"`
}

// NewClient creates a new Firecrawl client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev"
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
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), 2),
		logger:      logger.Named("firecrawl"),
	}
}

// doRequest executes a JSON POST request with auth headers
func (c *Client) doRequest(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", "DealScout/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: firecrawl: %v", domain.ErrUpstreamUnavailable, err)
	}
	return resp, nil
}

// Scrape fetches a product page and returns its metadata and content.
// No retries: a failed scrape is terminal for the request.
func (c *Client) Scrape(ctx context.Context, pageURL string) (*domain.ScrapeResult, error) {
	c.logger.Info("scraping page", zap.String("url", pageURL))

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: firecrawl rate limiter: %v", domain.ErrUpstreamUnavailable, err)
	}

	resp, err := c.doRequest(ctx, c.baseURL+"/v1/scrape", scrapeRequest{
		URL:             pageURL,
		Formats:         []string{"markdown", "rawHtml"},
		OnlyMainContent: false,
	})
	if err != nil {
		c.logger.Warn("scrape request failed", zap.String("url", pageURL), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: firecrawl: reading body: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("scrape returned error status",
			zap.String("url", pageURL),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(body, 500)),
		)
		return nil, fmt.Errorf("%w: firecrawl status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var parsed scrapeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: firecrawl: decoding response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("%w: firecrawl: %s", domain.ErrUpstreamUnavailable, parsed.Error)
	}

	metadata := NormalizeMetadata(parsed.Data.Metadata)
	if parsed.Data.RawHTML != "" {
		MergeHTMLMetadata(metadata, parsed.Data.RawHTML)
	}

	c.logger.Debug("scrape finished",
		zap.String("url", pageURL),
		zap.Int("metadata_keys", len(metadata)),
		zap.Int("markdown_bytes", len(parsed.Data.Markdown)),
	)

	return &domain.ScrapeResult{
		URL:      pageURL,
		Metadata: metadata,
		Markdown: parsed.Data.Markdown,
		RawHTML:  parsed.Data.RawHTML,
	}, nil
}

func truncate(b []byte, max int) []byte {
	if len(b) <= max {
		return b
	}
	return b[:max]
}
