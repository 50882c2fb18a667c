package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/dealscout/backend/internal/pipeline"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// fallbackHitScore is assigned to hits found by the slug search instead of findSimilar
	fallbackHitScore = 0.5

	maxDescriptionLength = 200
	noDescription        = "[No description available]"

	defaultSimilarResults = 10
)

// SimilarService finds listings similar to a seed product
type SimilarService struct {
	finder         domain.SimilarFinder
	agent          domain.Agent
	pipeline       *pipeline.Pipeline
	queries        *QueryBuilder
	similarResults int
	logger         *zap.Logger
}

// NewSimilarService creates a new similar-products service with dependencies.
// similarResults <= 0 uses the default of 10.
func NewSimilarService(
	finder domain.SimilarFinder,
	agent domain.Agent,
	pipe *pipeline.Pipeline,
	similarResults int,
	logger *zap.Logger,
) *SimilarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipe == nil {
		pipe = pipeline.New(pipeline.StandardDefaults(), logger)
	}
	if similarResults <= 0 {
		similarResults = defaultSimilarResults
	}

	return &SimilarService{
		finder:         finder,
		agent:          agent,
		pipeline:       pipe,
		queries:        NewQueryBuilder(logger),
		similarResults: similarResults,
		logger:         logger.Named("similar"),
	}
}

// FindSimilar returns products similar to req.URL, most relevant first.
// Flow: findSimilar (or slug search) -> enrich with page contents ->
// relevance filter -> validate
func (s *SimilarService) FindSimilar(ctx context.Context, req *domain.SimilarRequest) ([]domain.SimilarProduct, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("%w: product url is required", domain.ErrMissingPrecondition)
	}
	seedURL := strings.TrimSpace(req.URL)

	hits, err := s.findHits(ctx, seedURL, req.Title)
	if err != nil {
		return nil, err
	}

	candidates := s.enrich(ctx, hits)
	if len(candidates) == 0 {
		return []domain.SimilarProduct{}, nil
	}

	if s.agent != nil {
		raw, err := s.agent.Run(ctx, similarFilterTask(req, candidates))
		if err != nil {
			s.logger.Warn("similar-products filter failed, using enriched candidates", zap.Error(err))
		} else {
			products, err := s.pipeline.SimilarProducts(raw, seedURL)
			if err == nil && len(products) > 0 {
				return products, nil
			}
			s.logger.Info("similar-products filter returned nothing usable, using enriched candidates", zap.Error(err))
		}
	}

	return s.validateCandidates(candidates, seedURL), nil
}

// findHits asks the finder for pages similar to seedURL, falling back to a
// site-restricted search built from the URL slug (or the title)
func (s *SimilarService) findHits(ctx context.Context, seedURL, title string) ([]domain.SearchHit, error) {
	hits, findErr := s.finder.FindSimilar(ctx, seedURL, s.similarResults)
	if findErr == nil {
		return excludeURL(hits, seedURL), nil
	}

	if errors.Is(findErr, domain.ErrFetchDocument) {
		s.logger.Info("seed page could not be fetched, falling back to search", zap.String("url", seedURL))
	} else {
		s.logger.Warn("findSimilar failed, falling back to search", zap.String("url", seedURL), zap.Error(findErr))
	}

	query := s.queries.SlugQuery(seedURL)
	if query == "" {
		query = s.queries.CleanTitle(title)
	}
	if query == "" {
		return nil, fmt.Errorf("%w: find similar: %v", domain.ErrUpstreamUnavailable, findErr)
	}

	hits, err := s.finder.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: find similar: %v; fallback search: %v", domain.ErrUpstreamUnavailable, findErr, err)
	}
	for i := range hits {
		hits[i].Score = fallbackHitScore
	}
	return excludeURL(hits, seedURL), nil
}

// enrich turns hits into candidate products using the pages' contents.
// A contents failure leaves candidates with defaults only.
func (s *SimilarService) enrich(ctx context.Context, hits []domain.SearchHit) []domain.SimilarProduct {
	if len(hits) == 0 {
		return []domain.SimilarProduct{}
	}

	urls := make([]string, 0, len(hits))
	for _, hit := range hits {
		urls = append(urls, hit.URL)
	}

	contents := map[string]domain.PageContent{}
	pages, err := s.finder.Contents(ctx, urls)
	if err != nil {
		s.logger.Warn("fetching page contents failed", zap.Int("urls", len(urls)), zap.Error(err))
	}
	for _, page := range pages {
		contents[page.URL] = page
	}

	placeholder := s.pipeline.Validator().Defaults().PlaceholderImageURL
	candidates := make([]domain.SimilarProduct, 0, len(hits))
	for _, hit := range hits {
		page := contents[hit.URL]

		title := hit.Title
		if title == "" {
			title = page.Title
		}
		score := hit.Score

		candidate := domain.SimilarProduct{
			Title:       title,
			URL:         hit.URL,
			Score:       &score,
			Description: describe(page.Text),
			ImageURL:    placeholder,
		}
		if price, ok := FindPriceText(page.Text); ok {
			candidate.Price = price
		}
		if retailer := retailerName(hit.URL); retailer != "" {
			candidate.Retailer = &retailer
		}
		if len(page.ImageURLs) > 0 && page.ImageURLs[0] != "" {
			candidate.ImageURL = page.ImageURLs[0]
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

// validateCandidates runs enriched candidates through the same validator the
// agent output goes through
func (s *SimilarService) validateCandidates(candidates []domain.SimilarProduct, seedURL string) []domain.SimilarProduct {
	encoded, err := json.Marshal(candidates)
	if err != nil {
		s.logger.Error("encoding candidates failed", zap.Error(err))
		return []domain.SimilarProduct{}
	}
	products, _ := s.pipeline.Validator().ValidateSimilar(gjson.ParseBytes(encoded).Array(), seedURL)
	if products == nil {
		return []domain.SimilarProduct{}
	}
	return products
}

// describe returns the start of a page's text as a short description
func describe(text string) *string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		d := noDescription
		return &d
	}
	runes := []rune(text)
	if len(runes) > maxDescriptionLength {
		text = string(runes[:maxDescriptionLength])
	}
	return &text
}

// retailerName derives a display name from a URL host, e.g. "www.zara.com" -> "Zara"
func retailerName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	label, _, _ := strings.Cut(host, ".")
	if label == "" {
		return ""
	}
	return cases.Title(language.Und).String(label)
}

// excludeURL drops hits pointing back at the seed page
func excludeURL(hits []domain.SearchHit, seedURL string) []domain.SearchHit {
	seed := normalizeURL(seedURL)
	kept := make([]domain.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if hit.URL == "" || normalizeURL(hit.URL) == seed {
			continue
		}
		kept = append(kept, hit)
	}
	return kept
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(u)), "/")
}
