package usecase

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/dealscout/backend/internal/pipeline"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	// regexConfidence is reported when the price came from the pattern fallback
	regexConfidence = 40
	// defaultAIConfidence is used when the agent gives a price without a confidence
	defaultAIConfidence = 50
)

// Price patterns tried in order: symbol-prefixed, then ISO-code-suffixed
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[$€£]\s?\d{1,3}(?:[,.]\d{3})*(?:[,.]\d{2})?`),
	regexp.MustCompile(`\d{1,3}(?:[,.]\d{3})*(?:[,.]\d{2})?\s?(?:USD|EUR|GBP)`),
}

// AI output paths, most specific first
var (
	aiPricePaths      = []string{"current_price.value", "price.value", "price"}
	aiConfidencePaths = []string{"current_price.confidence", "price.confidence", "overall_confidence"}
)

// PriceExtractionService reads a product price out of page content
type PriceExtractionService struct {
	agent    domain.Agent
	pipeline *pipeline.Pipeline
	logger   *zap.Logger
}

// NewPriceExtractionService creates a new price extraction service.
// agent may be nil, in which case only the pattern fallback runs.
func NewPriceExtractionService(agent domain.Agent, pipe *pipeline.Pipeline, logger *zap.Logger) *PriceExtractionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pipe == nil {
		pipe = pipeline.New(pipeline.StandardDefaults(), logger)
	}
	return &PriceExtractionService{
		agent:    agent,
		pipeline: pipe,
		logger:   logger.Named("price"),
	}
}

// ExtractPrice returns the current price found in content.
// content is either plain page text or a JSON document
// {"structured": ..., "raw_content": "..."}.
func (s *PriceExtractionService) ExtractPrice(ctx context.Context, content, pageURL string) (*domain.PriceExtraction, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrMissingPrecondition)
	}

	structured, rawText := splitHybridContent(content)

	if s.agent != nil {
		result, err := s.agent.Run(ctx, priceExtractorTask(structured, rawText, pageURL))
		if err != nil {
			s.logger.Warn("price extractor failed, using pattern fallback", zap.String("url", pageURL), zap.Error(err))
		} else if doc, err := s.pipeline.Document(result); err == nil {
			if price, ok := firstText(doc, aiPricePaths); ok {
				return &domain.PriceExtraction{
					Price:        &price,
					Confidence:   aiConfidence(doc),
					FallbackUsed: false,
				}, nil
			}
			s.logger.Info("price extractor returned no price, using pattern fallback", zap.String("url", pageURL))
		}
	}

	if price, ok := FindPriceText(rawText); ok {
		return &domain.PriceExtraction{Price: &price, Confidence: regexConfidence, FallbackUsed: true}, nil
	}
	return &domain.PriceExtraction{Price: nil, Confidence: 0, FallbackUsed: true}, nil
}

// FindPriceText returns the first price-looking substring of text
func FindPriceText(text string) (string, bool) {
	for _, pattern := range pricePatterns {
		if match := pattern.FindString(text); match != "" {
			return strings.TrimSpace(match), true
		}
	}
	return "", false
}

// splitHybridContent separates structured data from raw text when content is
// a hybrid JSON document. Plain content is returned as raw text.
func splitHybridContent(content string) (any, string) {
	trimmed := strings.TrimSpace(content)
	if !gjson.Valid(trimmed) {
		return nil, content
	}
	doc := gjson.Parse(trimmed)
	if !doc.IsObject() {
		return nil, content
	}
	raw := doc.Get("raw_content")
	structured := doc.Get("structured")
	if !raw.Exists() && !structured.Exists() {
		return nil, content
	}
	return structured.Value(), raw.String()
}

// firstText returns the first non-empty scalar at paths, rendered as text
func firstText(doc gjson.Result, paths []string) (string, bool) {
	for _, path := range paths {
		value := doc.Get(path)
		switch value.Type {
		case gjson.String:
			if s := strings.TrimSpace(value.Str); s != "" {
				return s, true
			}
		case gjson.Number:
			return strconv.FormatFloat(value.Num, 'f', -1, 64), true
		}
	}
	return "", false
}

// aiConfidence reads the agent's confidence, clamped to 0-100
func aiConfidence(doc gjson.Result) float64 {
	for _, path := range aiConfidencePaths {
		value := doc.Get(path)
		var c float64
		switch value.Type {
		case gjson.Number:
			c = value.Num
		case gjson.String:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(value.Str), 64)
			if err != nil {
				continue
			}
			c = parsed
		default:
			continue
		}
		if math.IsNaN(c) {
			continue
		}
		return math.Max(0, math.Min(100, c))
	}
	return defaultAIConfidence
}
