// Package pipeline reduces loosely structured agent and scraper output to
// validated records: unwrap, repair, shape, validate, then either the
// trust gate (single product) or filter-sort (offers).
package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/dealscout/backend/internal/domain"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Pipeline runs agent results through the normalization stages
type Pipeline struct {
	validator *Validator
	logger    *zap.Logger
}

// New creates a pipeline using defaults for missing optional fields
func New(defaults Defaults, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		validator: NewValidator(defaults, logger),
		logger:    logger.Named("pipeline"),
	}
}

// Validator exposes the record validator
func (p *Pipeline) Validator() *Validator {
	return p.validator
}

// Document unwraps an agent result and parses it into a JSON document.
// Malformed text is logged and reported as domain.ErrMalformedPayload.
func (p *Pipeline) Document(raw domain.AgentResult) (gjson.Result, error) {
	payload := Unwrap(raw)

	if payload.IsText {
		parsed, err := RepairAndParse(payload.Text)
		if err != nil {
			p.logger.Warn("agent output could not be parsed",
				zap.Error(err),
				zap.String("raw", snippet(payload.Text, 1000)),
			)
			return gjson.Result{}, err
		}
		return gjson.ParseBytes(parsed), nil
	}

	encoded, err := json.Marshal(payload.Structured)
	if err != nil {
		p.logger.Warn("structured agent output could not be encoded", zap.Error(err))
		return gjson.Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return gjson.ParseBytes(encoded), nil
}

// Offers reduces an agent result to validated offers found under "offers"
func (p *Pipeline) Offers(raw domain.AgentResult) ([]domain.Offer, error) {
	doc, err := p.Document(raw)
	if err != nil {
		return []domain.Offer{}, err
	}
	offers, _ := p.validator.ValidateOffers(NormalizeShape(doc, "offers"))
	return offers, nil
}

// SimilarProducts reduces an agent result to validated similar products
// found under "similar_products"
func (p *Pipeline) SimilarProducts(raw domain.AgentResult, fallbackURL string) ([]domain.SimilarProduct, error) {
	doc, err := p.Document(raw)
	if err != nil {
		return []domain.SimilarProduct{}, err
	}
	products, _ := p.validator.ValidateSimilar(NormalizeShape(doc, "similar_products"), fallbackURL)
	return products, nil
}

// Product applies the trust gate to an agent result. A nil result, or one
// that cannot be parsed, yields the metadata-derived record.
func (p *Pipeline) Product(raw domain.AgentResult, metadata map[string]any) domain.ProductRecord {
	var ai gjson.Result
	if raw != nil {
		doc, err := p.Document(raw)
		if err == nil {
			ai = doc
		}
	}

	record, trusted := SelectProduct(ai, metadata)
	if !trusted {
		p.logger.Info("using metadata-derived product record",
			zap.String("agent_title", ai.Get("title").String()),
		)
	}
	return record
}
