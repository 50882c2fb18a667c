// Package app wires configuration into clients and use cases. The HTTP
// server and the CLI share it so both run the same stack.
package app

import (
	"context"
	"fmt"

	"github.com/dealscout/backend/config"
	"github.com/dealscout/backend/internal/infrastructure/agent"
	"github.com/dealscout/backend/internal/infrastructure/duckduckgo"
	"github.com/dealscout/backend/internal/infrastructure/exa"
	"github.com/dealscout/backend/internal/infrastructure/firecrawl"
	"github.com/dealscout/backend/internal/logging"
	"github.com/dealscout/backend/internal/pipeline"
	"github.com/dealscout/backend/internal/usecase"
	"go.uber.org/zap"
)

// Services are the use cases built from one configuration
type Services struct {
	Products   *usecase.ProductService
	Comparison *usecase.ComparisonService
	Similar    *usecase.SimilarService
	Prices     *usecase.PriceExtractionService
}

// NewLogger builds the process logger from configuration
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Server.Environment == "development",
	})
}

// Build creates the upstream clients and the use cases on top of them
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scraper := firecrawl.NewClient(firecrawl.Config{
		APIKey:        cfg.Firecrawl.APIKey,
		BaseURL:       cfg.Firecrawl.BaseURL,
		Timeout:       cfg.Firecrawl.Timeout,
		RatePerSecond: cfg.RateLimit.Firecrawl,
	}, logger)

	exaClient := exa.NewClient(exa.Config{
		APIKey:        cfg.Exa.APIKey,
		BaseURL:       cfg.Exa.BaseURL,
		Timeout:       cfg.Exa.Timeout,
		NumResults:    cfg.Exa.NumResults,
		RatePerSecond: cfg.RateLimit.Exa,
	}, logger)

	webSearch := duckduckgo.NewClient(duckduckgo.Config{
		BaseURL:       cfg.DuckDuckGo.BaseURL,
		Timeout:       cfg.DuckDuckGo.Timeout,
		MaxResults:    cfg.DuckDuckGo.MaxResults,
		RatePerSecond: cfg.RateLimit.DuckDuckGo,
	}, logger)

	llm, err := agent.New(ctx, agent.Config{
		Provider: cfg.Agent.Provider,
		APIKey:   cfg.Agent.APIKey,
		Model:    cfg.Agent.Model,
		BaseURL:  cfg.Agent.BaseURL,
		Timeout:  cfg.Agent.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	pipe := pipeline.New(pipeline.Defaults{
		UnknownTitle:        cfg.Defaults.UnknownTitle,
		PlaceholderImageURL: cfg.Defaults.PlaceholderImageURL,
	}, logger)

	logger.Info("upstream clients configured",
		zap.String("firecrawl", cfg.Firecrawl.BaseURL),
		zap.String("exa", cfg.Exa.BaseURL),
		zap.String("duckduckgo", cfg.DuckDuckGo.BaseURL),
		zap.String("agent_provider", cfg.Agent.Provider),
		zap.String("agent_model", cfg.Agent.Model),
	)

	return &Services{
		Products:   usecase.NewProductService(scraper, llm, pipe, logger),
		Comparison: usecase.NewComparisonService(webSearch, exaClient, llm, pipe, logger),
		Similar:    usecase.NewSimilarService(exaClient, llm, pipe, cfg.Exa.SimilarResults, logger),
		Prices:     usecase.NewPriceExtractionService(llm, pipe, logger),
	}, nil
}
