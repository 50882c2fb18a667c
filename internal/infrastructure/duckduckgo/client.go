package duckduckgo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dealscout/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Config holds DuckDuckGo client settings
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	MaxResults    int
	RatePerSecond float64
}

// Client searches DuckDuckGo's HTML endpoint. No API key is needed.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxResults  int
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// NewClient creates a new DuckDuckGo client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		maxResults:  maxResults,
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:      logger.Named("duckduckgo"),
	}
}

// Search runs a query and returns up to MaxResults hits in page order.
// Scores decrease linearly with rank since the HTML page carries none.
func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	c.logger.Info("search", zap.String("query", query))

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: duckduckgo rate limiter: %v", domain.ErrUpstreamUnavailable, err)
	}

	params := url.Values{}
	params.Set("q", query)
	reqURL := fmt.Sprintf("%s/html/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("search returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("%w: duckduckgo status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: parsing html: %v", domain.ErrUpstreamUnavailable, err)
	}

	hits := c.parseResults(doc)
	c.logger.Debug("search finished", zap.String("query", query), zap.Int("hits", len(hits)))
	return hits, nil
}

func (c *Client) parseResults(doc *goquery.Document) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, c.maxResults)

	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Sponsored results link through the ad redirector
		if s.HasClass("result--ad") {
			return true
		}

		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		target := resolveLink(href)
		if target == "" {
			return true
		}

		hits = append(hits, domain.SearchHit{
			Title: strings.TrimSpace(link.Text()),
			URL:   target,
		})
		return len(hits) < c.maxResults
	})

	for i := range hits {
		hits[i].Score = 1 - float64(i)/float64(len(hits)+1)
	}
	return hits
}

// resolveLink unwraps DuckDuckGo's /l/?uddg= redirect links and makes
// protocol-relative links absolute
func resolveLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if strings.HasSuffix(parsed.Host, "duckduckgo.com") || parsed.Host == "" {
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
		return ""
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ""
	}
	return href
}
