package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/dealscout/backend/internal/domain"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// placeholderMarkers flag agent titles that were invented rather than read
var placeholderMarkers = []string{"sample", "example"}

// Metadata keys checked in order when rebuilding a record from scraped metadata.
// Both OpenGraph keys and the scraping service's camelCase keys appear.
var (
	titleKeys       = []string{"og:title", "title", "ogTitle", "product_title"}
	priceKeys       = []string{"og:price:amount", "product:price:amount", "price"}
	currencyKeys    = []string{"og:price:currency", "product:price:currency", "currency"}
	imageKeys       = []string{"og:image", "ogImage", "image", "image_url"}
	siteNameKeys    = []string{"og:site_name", "ogSiteName", "site_name"}
	descriptionKeys = []string{"og:description", "description", "ogDescription", "product:description"}
	urlKeys         = []string{"og:url", "ogUrl", "url", "sourceURL"}
)

// SelectProduct returns the agent record when it passes the trust check
// against the scraped metadata, otherwise a record built from the metadata.
// trusted reports which of the two was chosen.
func SelectProduct(ai gjson.Result, metadata map[string]any) (record domain.ProductRecord, trusted bool) {
	if IsTrusted(ai, metadata) {
		return coerceProduct(ai), true
	}
	return ProductFromMetadata(metadata), false
}

// IsTrusted reports whether the agent title is free of placeholder markers
// and appears verbatim (case-insensitively) in the scraped title.
func IsTrusted(ai gjson.Result, metadata map[string]any) bool {
	if !ai.IsObject() {
		return false
	}
	title := ai.Get("title")
	if title.Type != gjson.String || title.Str == "" {
		return false
	}

	lower := cases.Lower(language.Und)
	aiTitle := lower.String(title.Str)
	for _, marker := range placeholderMarkers {
		if strings.Contains(aiTitle, marker) {
			return false
		}
	}

	truthTitle := lower.String(metadataString(metadata, titleKeys))
	return strings.Contains(truthTitle, aiTitle)
}

// ProductFromMetadata builds a record from scraped metadata. Fields the
// metadata never carries (original price, category, last checked) stay nil.
func ProductFromMetadata(metadata map[string]any) domain.ProductRecord {
	record := domain.ProductRecord{
		Title:       optionalString(metadataString(metadata, titleKeys)),
		Currency:    optionalString(metadataString(metadata, currencyKeys)),
		ImageURL:    optionalString(metadataString(metadata, imageKeys)),
		SiteName:    optionalString(metadataString(metadata, siteNameKeys)),
		Description: optionalString(metadataString(metadata, descriptionKeys)),
		URL:         optionalString(metadataString(metadata, urlKeys)),
	}

	for _, key := range priceKeys {
		if price, ok := numberValue(metadata[key]); ok {
			record.Price = &price
			break
		}
	}

	return record
}

func coerceProduct(ai gjson.Result) domain.ProductRecord {
	record := domain.ProductRecord{
		Title:         jsonString(ai.Get("title")),
		Price:         jsonNumber(ai.Get("price")),
		Currency:      jsonString(ai.Get("currency")),
		ImageURL:      jsonString(ai.Get("image_url")),
		SiteName:      jsonString(ai.Get("site_name")),
		Description:   jsonString(ai.Get("description")),
		URL:           jsonString(ai.Get("url")),
		OriginalPrice: jsonNumber(ai.Get("original_price")),
		Category:      jsonString(ai.Get("category")),
	}

	if checked := ai.Get("last_checked"); checked.Type == gjson.String {
		if t, err := time.Parse(time.RFC3339, checked.Str); err == nil {
			record.LastChecked = &t
		}
	}

	return record
}

func jsonString(value gjson.Result) *string {
	if value.Type != gjson.String {
		return nil
	}
	s := value.Str
	return &s
}

func jsonNumber(value gjson.Result) *float64 {
	switch value.Type {
	case gjson.Number:
		f := value.Float()
		return &f
	case gjson.String:
		if f, ok := ParsePrice(value.Str); ok {
			return &f
		}
	}
	return nil
}

// metadataString returns the first non-empty string under any of keys.
// List values contribute their first string element.
func metadataString(metadata map[string]any, keys []string) string {
	for _, key := range keys {
		switch v := metadata[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		case []string:
			for _, s := range v {
				if strings.TrimSpace(s) != "" {
					return strings.TrimSpace(s)
				}
			}
		}
	}
	return ""
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		return ParsePrice(n)
	case []any:
		if len(n) > 0 {
			return numberValue(n[0])
		}
	}
	return 0, false
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ParsePrice reads a number out of a price string such as "19.99",
// "$1,299.00" or "12,50 EUR"
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	digits := strings.Trim(b.String(), ".,")
	if digits == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(digits, ",")
	lastDot := strings.LastIndex(digits, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// Whichever separator comes last is the decimal point
		if lastComma > lastDot {
			digits = strings.ReplaceAll(digits, ".", "")
			digits = strings.Replace(digits, ",", ".", 1)
		} else {
			digits = strings.ReplaceAll(digits, ",", "")
		}
	case lastComma >= 0:
		if len(digits)-lastComma-1 == 2 && strings.Count(digits, ",") == 1 {
			digits = strings.Replace(digits, ",", ".", 1)
		} else {
			digits = strings.ReplaceAll(digits, ",", "")
		}
	}

	f, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
