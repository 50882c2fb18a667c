package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/dealscout/backend/internal/pipeline"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ComparisonService finds offers cheaper than a reference product
type ComparisonService struct {
	webSearch domain.SearchClient
	exaSearch domain.SearchClient
	agent     domain.Agent
	pipeline  *pipeline.Pipeline
	queries   *QueryBuilder
	logger    *zap.Logger
}

// branchResult is what one search backend contributed
type branchResult struct {
	offers []domain.Offer
	err    error
}

// NewComparisonService creates a new comparison service with dependencies
func NewComparisonService(
	webSearch domain.SearchClient,
	exaSearch domain.SearchClient,
	agent domain.Agent,
	pipe *pipeline.Pipeline,
	logger *zap.Logger,
) *ComparisonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipe == nil {
		pipe = pipeline.New(pipeline.StandardDefaults(), logger)
	}

	return &ComparisonService{
		webSearch: webSearch,
		exaSearch: exaSearch,
		agent:     agent,
		pipeline:  pipe,
		queries:   NewQueryBuilder(logger),
		logger:    logger.Named("comparison"),
	}
}

// ComparePrice returns offers strictly cheaper than req.Price, cheapest first.
// Flow: search both backends concurrently -> extract offers per branch ->
// synthesize -> filter and sort
func (s *ComparisonService) ComparePrice(ctx context.Context, req *domain.ComparisonRequest) ([]domain.Offer, error) {
	if req == nil || strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: product title is required", domain.ErrMissingPrecondition)
	}
	if req.Price <= 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, fmt.Errorf("%w: product price is required", domain.ErrMissingPrecondition)
	}

	query := s.queries.OfferQuery(req.Title)
	if query == "" {
		query = strings.TrimSpace(req.Title)
	}

	var web, exa branchResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		web = s.runBranch(gctx, "duckduckgo", s.webSearch, query, req)
		return nil
	})
	g.Go(func() error {
		exa = s.runBranch(gctx, "exa", s.exaSearch, query, req)
		return nil
	})
	// Branches absorb their own errors
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	if web.err != nil && exa.err != nil {
		return nil, fmt.Errorf("%w: all search backends failed: duckduckgo: %v; exa: %v",
			domain.ErrUpstreamUnavailable, web.err, exa.err)
	}

	merged := s.synthesize(ctx, req, web.offers, exa.offers)

	offers := pipeline.FilterSort(merged, req.Price)
	s.logger.Info("price comparison finished",
		zap.String("title", req.Title),
		zap.Float64("price", req.Price),
		zap.Int("duckduckgo_offers", len(web.offers)),
		zap.Int("exa_offers", len(exa.offers)),
		zap.Int("returned", len(offers)),
	)
	return offers, nil
}

// runBranch searches one backend and has the agent extract offers from the hits.
// err is set only when an upstream call failed; unusable output gives an empty list.
func (s *ComparisonService) runBranch(
	ctx context.Context,
	source string,
	search domain.SearchClient,
	query string,
	req *domain.ComparisonRequest,
) branchResult {
	if search == nil {
		return branchResult{offers: []domain.Offer{}, err: fmt.Errorf("%s search not configured", source)}
	}

	hits, err := search.Search(ctx, query)
	if err != nil {
		s.logger.Warn("search branch failed", zap.String("source", source), zap.String("query", query), zap.Error(err))
		return branchResult{offers: []domain.Offer{}, err: err}
	}
	if len(hits) == 0 {
		return branchResult{offers: []domain.Offer{}}
	}

	if s.agent == nil {
		return branchResult{offers: []domain.Offer{}}
	}

	raw, err := s.agent.Run(ctx, offerSearchTask(source, req, hits))
	if err != nil {
		s.logger.Warn("offer extraction failed", zap.String("source", source), zap.Error(err))
		return branchResult{offers: []domain.Offer{}, err: err}
	}

	offers, err := s.pipeline.Offers(raw)
	if err != nil {
		s.logger.Warn("offer extraction output unusable", zap.String("source", source), zap.Error(err))
	}
	return branchResult{offers: offers}
}

// synthesize merges both branches through the agent, falling back to the
// plain concatenation when the agent fails or returns nothing usable
func (s *ComparisonService) synthesize(
	ctx context.Context,
	req *domain.ComparisonRequest,
	webOffers, exaOffers []domain.Offer,
) []domain.Offer {
	concatenated := make([]domain.Offer, 0, len(webOffers)+len(exaOffers))
	concatenated = append(concatenated, webOffers...)
	concatenated = append(concatenated, exaOffers...)

	if len(concatenated) == 0 || s.agent == nil {
		return concatenated
	}

	raw, err := s.agent.Run(ctx, synthesizerTask(req, webOffers, exaOffers))
	if err != nil {
		s.logger.Warn("offer synthesis failed, using branch offers", zap.Error(err))
		return concatenated
	}

	offers, err := s.pipeline.Offers(raw)
	if err != nil || len(offers) == 0 {
		s.logger.Info("offer synthesis returned nothing usable, using branch offers", zap.Error(err))
		return concatenated
	}
	return offers
}
