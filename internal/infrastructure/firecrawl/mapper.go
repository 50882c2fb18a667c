package firecrawl

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// NormalizeMetadata copies scraped metadata, collapsing list values to their
// first non-empty string and dropping empty values
func NormalizeMetadata(raw map[string]any) map[string]any {
	metadata := make(map[string]any, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				metadata[key] = strings.TrimSpace(v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					metadata[key] = strings.TrimSpace(s)
					break
				}
			}
		case nil:
		default:
			metadata[key] = v
		}
	}
	return metadata
}

// MergeHTMLMetadata fills keys missing from metadata with values read from
// the page's <meta> tags, <title> and JSON-LD product offers
func MergeHTMLMetadata(metadata map[string]any, rawHTML string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return
	}

	setIfMissing := func(key, value string) {
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	doc.Find("meta[content]").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if property, ok := s.Attr("property"); ok {
			setIfMissing(property, content)
		} else if name, ok := s.Attr("name"); ok {
			setIfMissing(name, content)
		} else if prop, ok := s.Attr("itemprop"); ok {
			setIfMissing(prop, content)
		}
	})

	setIfMissing("title", doc.Find("head title").First().Text())

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		product := findProductLD(gjson.Parse(s.Text()))
		if !product.Exists() {
			return
		}

		offers := product.Get("offers")
		if offers.IsArray() {
			offers = offers.Get("0")
		}
		setIfMissing("product:price:amount", offers.Get("price").String())
		setIfMissing("product:price:currency", offers.Get("priceCurrency").String())
		setIfMissing("product_title", product.Get("name").String())
	})
}

// findProductLD returns the first JSON-LD node typed Product
func findProductLD(node gjson.Result) gjson.Result {
	switch {
	case node.IsArray():
		for _, item := range node.Array() {
			if found := findProductLD(item); found.Exists() {
				return found
			}
		}
	case node.IsObject():
		// "@" starts a gjson modifier unless escaped
		nodeType := node.Get(`\@type`)
		if nodeType.String() == "Product" {
			return node
		}
		if nodeType.IsArray() {
			for _, t := range nodeType.Array() {
				if t.String() == "Product" {
					return node
				}
			}
		}
		if graph := node.Get(`\@graph`); graph.Exists() {
			return findProductLD(graph)
		}
	}
	return gjson.Result{}
}
