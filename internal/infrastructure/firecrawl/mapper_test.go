package firecrawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeMetadata(t *testing.T) {
	got := NormalizeMetadata(map[string]any{
		"title":      "  Lamp ",
		"ogImage":    []any{42, "https://img/a.jpg"},
		"statusCode": float64(200),
		"nothing":    nil,
		"blank":      " ",
	})

	assert.Equal(t, map[string]any{
		"title":      "Lamp",
		"ogImage":    "https://img/a.jpg",
		"statusCode": float64(200),
	}, got)
}

func TestMergeHTMLMetadata(t *testing.T) {
	const page = `<html><head>
		<title>Lamp | Lights</title>
		<meta property="og:title" content="Brass Lamp">
		<meta property="og:price:amount" content="49.00">
		<meta name="description" content="A brass desk lamp">
		<script type="application/ld+json">
			{"@context":"https://schema.org","@graph":[
				{"@type":"WebPage","name":"Lamp page"},
				{"@type":["Product"],"name":"Brass Desk Lamp","offers":[{"price":"45.50","priceCurrency":"USD"}]}
			]}
		</script>
	</head><body></body></html>`

	t.Run("fills missing keys", func(t *testing.T) {
		metadata := map[string]any{}

		MergeHTMLMetadata(metadata, page)

		assert.Equal(t, "Brass Lamp", metadata["og:title"])
		assert.Equal(t, "49.00", metadata["og:price:amount"])
		assert.Equal(t, "A brass desk lamp", metadata["description"])
		assert.Equal(t, "Lamp | Lights", metadata["title"])
		assert.Equal(t, "45.50", metadata["product:price:amount"])
		assert.Equal(t, "USD", metadata["product:price:currency"])
		assert.Equal(t, "Brass Desk Lamp", metadata["product_title"])
	})

	t.Run("keeps scraped values", func(t *testing.T) {
		metadata := map[string]any{"og:title": "Scraped Title"}

		MergeHTMLMetadata(metadata, page)

		assert.Equal(t, "Scraped Title", metadata["og:title"])
	})

	t.Run("ignores pages without metadata", func(t *testing.T) {
		metadata := map[string]any{}

		MergeHTMLMetadata(metadata, "<p>hello</p>")

		assert.Empty(t, metadata)
	})
}
