package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/dealscout/backend/internal/pipeline"
	"go.uber.org/zap"
)

// ProductService fetches a product page and normalizes it into a ProductRecord
type ProductService struct {
	scraper  domain.Scraper
	agent    domain.Agent
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewProductService creates a new product service with dependencies.
// agent may be nil, in which case records always come from metadata.
func NewProductService(
	scraper domain.Scraper,
	agent domain.Agent,
	pipe *pipeline.Pipeline,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipe == nil {
		pipe = pipeline.New(pipeline.StandardDefaults(), logger)
	}

	return &ProductService{
		scraper:  scraper,
		agent:    agent,
		pipeline: pipe,
		logger:   logger.Named("product"),
	}
}

// GetProduct scrapes a product page and returns its canonical record.
// Flow: scrape -> clean with agent -> trust gate -> return
func (s *ProductService) GetProduct(ctx context.Context, productURL string) (*domain.ProductRecord, error) {
	productURL = strings.TrimSpace(productURL)
	if !isHTTPURL(productURL) {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", domain.ErrInvalidRequest)
	}

	page, err := s.scraper.Scrape(ctx, productURL)
	if err != nil {
		return nil, err
	}

	metadata := page.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	if _, ok := metadata["sourceURL"]; !ok {
		metadata["sourceURL"] = productURL
	}

	var cleaned domain.AgentResult
	if s.agent != nil {
		cleaned, err = s.agent.Run(ctx, cleanerTask(metadata))
		if err != nil {
			// Agent failures degrade to the metadata-derived record
			s.logger.Warn("product cleaner failed",
				zap.String("url", productURL),
				zap.Error(err),
			)
			cleaned = nil
		}
	}

	record := s.pipeline.Product(cleaned, metadata)
	return &record, nil
}

// isHTTPURL reports whether s is an absolute http or https URL
func isHTTPURL(s string) bool {
	if s == "" {
		return false
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
