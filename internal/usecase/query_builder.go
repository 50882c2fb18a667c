package usecase

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// QueryBuilder turns noisy product titles and URLs into search queries
type QueryBuilder struct {
	logger *zap.Logger
}

// Compiled regex patterns for query building
var (
	// Matches size/quantity patterns like "12 oz", "1.5 liter", "500 ml", "2 lb"
	sizeQuantityPattern = regexp.MustCompile(`(?i)\b\d+\.?\d*\s*(fl\s*)?oz\b|\b\d+\.?\d*\s*(fl\s*)?ounces?\b|\b\d+\.?\d*\s*lbs?\b|\b\d+\.?\d*\s*pounds?\b|\b\d+\.?\d*\s*ml\b|\b\d+\.?\d*\s*liters?\b|\b\d+\.?\d*\s*kg\b|\b\d+\.?\d*\s*grams?\b|\b\d+\.?\d*\s*g\b`)

	// Matches pack/count patterns like "12 pack", "pack of 6", "6-pack", "24 count", "set of 2"
	packCountPattern = regexp.MustCompile(`(?i)\b\d+[-\s]*(pack|pk|count|ct|pcs|piece|pieces)\b|\b(pack|set)\s*of\s*\d+\b`)

	// Retailer suffixes appended to page titles, e.g. "Cool Shirt | Shop" or "Lamp - Amazon.com"
	titleSuffixPattern = regexp.MustCompile(`(?i)\s+[|\-–:]\s+[^|\-–:]*(\.com|store|shop|official site)[^|\-–:]*$`)

	// Matches standalone numbers left at boundaries (e.g., ", 128", "- 12")
	standaloneNumberPattern = regexp.MustCompile(`[,\-]\s*\d+\.?\d*\s*$|^\d+\.?\d*\s*[,\-]`)

	orphanedInnerPunctuation    = regexp.MustCompile(`\s+[,\-;:|]+\s+`)
	orphanedTrailingPunctuation = regexp.MustCompile(`[,\-;:|]+\s*$`)
	orphanedLeadingPunctuation  = regexp.MustCompile(`^\s*[,\-;:|]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords are marketing terms that narrow nothing down
var queryNoiseWords = map[string]bool{
	"new":        true,
	"sale":       true,
	"hot":        true,
	"best":       true,
	"seller":     true,
	"bestseller": true,
	"official":   true,
	"free":       true,
	"shipping":   true,
	"deal":       true,
	"deals":      true,
	"limited":    true,
	"edition":    true,
	"exclusive":  true,
	"premium":    true,
	"genuine":    true,
	"authentic":  true,
	"original":   true,
	"buy":        true,
	"online":     true,
	"cheap":      true,
	"discount":   true,
}

// maxQueryLength keeps queries within what the search backends accept
const maxQueryLength = 100

// NewQueryBuilder creates a new query builder
func NewQueryBuilder(logger *zap.Logger) *QueryBuilder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryBuilder{logger: logger.Named("query")}
}

// CleanTitle strips retailer suffixes, sizes, pack counts and marketing
// noise from a product title
func (b *QueryBuilder) CleanTitle(title string) string {
	if title == "" {
		return ""
	}

	// Step 1: Drop retailer suffixes
	cleaned := titleSuffixPattern.ReplaceAllString(title, "")

	// Step 2: Remove size/quantity patterns
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")

	// Step 3: Remove pack/count patterns
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")

	// Step 4: Remove standalone numbers at boundaries
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")

	// Step 5: Remove noise words
	cleaned = removeNoiseWords(cleaned)

	// Step 6: Clean up punctuation that's now orphaned
	cleaned = cleanOrphanedPunctuation(cleaned)

	// Step 7: Normalize whitespace
	cleaned = multiSpacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	// Step 8: Limit query length, cutting at a word boundary
	if len(cleaned) > maxQueryLength {
		cut := maxQueryLength
		for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
			cut--
		}
		cleaned = cleaned[:cut]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}

	b.logger.Debug("cleaned title", zap.String("input", title), zap.String("output", cleaned))
	return cleaned
}

// OfferQuery builds the shopping query used to look for cheaper offers
func (b *QueryBuilder) OfferQuery(title string) string {
	cleaned := b.CleanTitle(title)
	if cleaned == "" {
		return ""
	}
	return cleaned + " buy"
}

// SlugQuery derives a site-restricted query from a product URL: the first
// path segment longer than five characters that contains a hyphen, with
// hyphens turned into spaces, plus " site:<host>". Returns "" when the URL
// has no such segment.
func (b *QueryBuilder) SlugQuery(productURL string) string {
	parsed, err := url.Parse(productURL)
	if err != nil || parsed.Host == "" {
		return ""
	}

	for _, segment := range strings.Split(parsed.Path, "/") {
		if len(segment) > 5 && strings.Contains(segment, "-") {
			words := strings.ReplaceAll(segment, "-", " ")
			return multiSpacePattern.ReplaceAllString(strings.TrimSpace(words), " ") + " site:" + parsed.Host
		}
	}
	return ""
}

// removeNoiseWords removes marketing terms from the query
func removeNoiseWords(s string) string {
	words := strings.Fields(strings.ToLower(s))
	kept := make([]string, 0, len(words))

	for _, word := range words {
		// Clean punctuation from word for checking
		cleanWord := strings.Trim(word, ",.!?;:-'\"()")

		if !queryNoiseWords[cleanWord] {
			kept = append(kept, word)
		}
	}

	return strings.Join(kept, " ")
}

// cleanOrphanedPunctuation removes punctuation that's now alone (e.g., lone commas)
func cleanOrphanedPunctuation(s string) string {
	result := orphanedInnerPunctuation.ReplaceAllString(s, " ")
	result = orphanedTrailingPunctuation.ReplaceAllString(result, "")
	return orphanedLeadingPunctuation.ReplaceAllString(result, "")
}
