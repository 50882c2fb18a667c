package domain

import "time"

// ProductRecord is the canonical product shape returned to callers,
// whether it was cleaned by an agent or rebuilt from scraped metadata.
// Nil fields serialize as JSON null.
type ProductRecord struct {
	Title         *string    `json:"title"`
	Price         *float64   `json:"price"`
	Currency      *string    `json:"currency"`
	ImageURL      *string    `json:"image_url"`
	SiteName      *string    `json:"site_name"`
	Description   *string    `json:"description"`
	URL           *string    `json:"url"`
	OriginalPrice *float64   `json:"original_price"`
	Category      *string    `json:"category"`
	LastChecked   *time.Time `json:"last_checked"`
}

// Offer is a priced listing at another retailer, considered as a cheaper alternative
type Offer struct {
	Title       string  `json:"title"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Retailer    string  `json:"retailer"`
	URL         string  `json:"url" validate:"notblank"`
}

// SimilarProduct is a listing similar in kind to a reference product.
// Only one of Title or URL has to be present.
type SimilarProduct struct {
	Title       string   `json:"title" validate:"required_without=URL"`
	URL         string   `json:"url" validate:"required_without=Title"`
	Score       *float64 `json:"score"`
	Description *string  `json:"description"`
	Price       any      `json:"price"` // string, number or nil
	Retailer    *string  `json:"retailer"`
	ImageURL    string   `json:"image_url"`
}

// PriceExtraction is the result of reading a price out of page content
type PriceExtraction struct {
	Price        *string `json:"price"`
	Confidence   float64 `json:"confidence"` // 0-100
	FallbackUsed bool    `json:"fallback_used"`
}

// ComparisonRequest describes the product whose cheaper offers are requested
type ComparisonRequest struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
	URL   string  `json:"url,omitempty"`
}

// SimilarRequest describes the product whose similar listings are requested
type SimilarRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Price       string `json:"price,omitempty"`
}

// ScrapeResult is the scraping service's view of a single page
type ScrapeResult struct {
	URL      string         `json:"url"`
	Metadata map[string]any `json:"metadata"`
	Markdown string         `json:"markdown,omitempty"`
	RawHTML  string         `json:"-"`
}

// SearchHit is one ranked result from a search backend
type SearchHit struct {
	Title string  `json:"title"`
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// PageContent is the extracted text and images of a page
type PageContent struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	ImageURLs []string `json:"image_urls,omitempty"`
}
