package pipeline

import (
	"strings"

	"github.com/dealscout/backend/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Defaults are the fallback values the validator fills into optional fields
type Defaults struct {
	UnknownTitle        string
	PlaceholderImageURL string
}

// StandardDefaults returns the defaults used when nothing is configured
func StandardDefaults() Defaults {
	return Defaults{
		UnknownTitle:        "Unknown Product",
		PlaceholderImageURL: "https://via.placeholder.com/400",
	}
}

// offerTextFields must all be JSON strings for an offer to be accepted
var offerTextFields = []string{"title", "image_url", "description", "retailer", "url"}

// Validator checks candidate records against the Offer and SimilarProduct contracts
type Validator struct {
	defaults Defaults
	validate *validator.Validate
	logger   *zap.Logger
}

// NewValidator creates a record validator
func NewValidator(defaults Defaults, logger *zap.Logger) *Validator {
	if defaults.UnknownTitle == "" {
		defaults.UnknownTitle = StandardDefaults().UnknownTitle
	}
	if defaults.PlaceholderImageURL == "" {
		defaults.PlaceholderImageURL = StandardDefaults().PlaceholderImageURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{
		defaults: defaults,
		validate: v,
		logger:   logger.Named("validator"),
	}
}

// Defaults returns the configured fallback values
func (v *Validator) Defaults() Defaults {
	return v.defaults
}

// ValidateOffers keeps records that satisfy the Offer contract, in input order
func (v *Validator) ValidateOffers(records []gjson.Result) ([]domain.Offer, int) {
	accepted := make([]domain.Offer, 0, len(records))
	rejected := 0

	for i, record := range records {
		offer, reason := v.toOffer(record)
		if reason != "" {
			rejected++
			v.logger.Debug("rejected offer",
				zap.Int("index", i),
				zap.String("reason", reason),
				zap.String("record", snippet(record.Raw, 300)),
			)
			continue
		}
		accepted = append(accepted, offer)
	}

	if rejected > 0 {
		v.logger.Info("offer validation finished",
			zap.Int("accepted", len(accepted)),
			zap.Int("rejected", rejected),
		)
	}
	return accepted, rejected
}

func (v *Validator) toOffer(record gjson.Result) (domain.Offer, string) {
	if !record.IsObject() {
		return domain.Offer{}, "not an object"
	}

	for _, field := range offerTextFields {
		if record.Get(field).Type != gjson.String {
			return domain.Offer{}, field + " is not text"
		}
	}

	price := record.Get("price")
	if price.Type != gjson.Number {
		return domain.Offer{}, "price is not numeric"
	}

	offer := domain.Offer{
		Title:       record.Get("title").Str,
		ImageURL:    record.Get("image_url").Str,
		Description: record.Get("description").Str,
		Price:       price.Float(),
		Retailer:    record.Get("retailer").Str,
		URL:         strings.TrimSpace(record.Get("url").Str),
	}
	if err := v.validate.Struct(offer); err != nil {
		return domain.Offer{}, err.Error()
	}

	if strings.TrimSpace(offer.ImageURL) == "" {
		offer.ImageURL = v.defaults.PlaceholderImageURL
	}
	return offer, ""
}

// ValidateSimilar keeps records carrying a title or a url and fills
// missing optional fields with defaults. fallbackURL replaces a missing url.
func (v *Validator) ValidateSimilar(records []gjson.Result, fallbackURL string) ([]domain.SimilarProduct, int) {
	accepted := make([]domain.SimilarProduct, 0, len(records))
	rejected := 0

	for i, record := range records {
		product, reason := v.toSimilar(record, fallbackURL)
		if reason != "" {
			rejected++
			v.logger.Debug("rejected similar product",
				zap.Int("index", i),
				zap.String("reason", reason),
				zap.String("record", snippet(record.Raw, 300)),
			)
			continue
		}
		accepted = append(accepted, product)
	}

	if rejected > 0 {
		v.logger.Info("similar product validation finished",
			zap.Int("accepted", len(accepted)),
			zap.Int("rejected", rejected),
		)
	}
	return accepted, rejected
}

func (v *Validator) toSimilar(record gjson.Result, fallbackURL string) (domain.SimilarProduct, string) {
	if !record.IsObject() {
		return domain.SimilarProduct{}, "not an object"
	}

	product := domain.SimilarProduct{
		Title: strings.TrimSpace(stringField(record, "title")),
		URL:   strings.TrimSpace(stringField(record, "url")),
	}
	if err := v.validate.Struct(product); err != nil {
		return domain.SimilarProduct{}, "neither title nor url present"
	}

	if product.Title == "" {
		product.Title = v.defaults.UnknownTitle
	}
	if product.URL == "" {
		product.URL = fallbackURL
	}

	if score := record.Get("score"); score.Type == gjson.Number {
		f := score.Float()
		product.Score = &f
	}
	if desc := record.Get("description"); desc.Type == gjson.String {
		s := desc.Str
		product.Description = &s
	}
	switch price := record.Get("price"); price.Type {
	case gjson.String:
		product.Price = price.Str
	case gjson.Number:
		product.Price = price.Float()
	}
	if retailer := record.Get("retailer"); retailer.Type == gjson.String {
		s := retailer.Str
		product.Retailer = &s
	}

	product.ImageURL = strings.TrimSpace(stringField(record, "image_url"))
	if product.ImageURL == "" {
		product.ImageURL = v.defaults.PlaceholderImageURL
	}

	return product, ""
}

// stringField returns the field when it is a JSON string, otherwise ""
func stringField(record gjson.Result, key string) string {
	value := record.Get(key)
	if value.Type != gjson.String {
		return ""
	}
	return value.Str
}
