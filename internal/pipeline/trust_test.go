package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestIsTrusted(t *testing.T) {
	metadata := map[string]any{"og:title": "Cool Shirt - Organic Cotton | Shop"}

	tests := []struct {
		name string
		ai   string
		want bool
	}{
		{"substring of scraped title", `{"title":"Cool Shirt"}`, true},
		{"case insensitive", `{"title":"COOL SHIRT - ORGANIC"}`, true},
		{"sample placeholder", `{"title":"Sample Product"}`, false},
		{"example placeholder", `{"title":"Example Shirt"}`, false},
		{"reworded title", `{"title":"Organic Cool Shirt"}`, false},
		{"empty title", `{"title":""}`, false},
		{"missing title", `{"price":10}`, false},
		{"non string title", `{"title":42}`, false},
		{"not an object", `["Cool Shirt"]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTrusted(gjson.Parse(tt.ai), metadata))
		})
	}
}

func TestIsTrusted_FallsBackToPlainTitle(t *testing.T) {
	metadata := map[string]any{"title": "Cool Shirt"}

	assert.True(t, IsTrusted(gjson.Parse(`{"title":"cool shirt"}`), metadata))
	assert.False(t, IsTrusted(gjson.Parse(`{"title":"cool shirt"}`), map[string]any{}))
}

func TestSelectProduct(t *testing.T) {
	metadata := map[string]any{
		"og:title":          "Cool Shirt",
		"og:price:amount":   "19.99",
		"og:price:currency": "USD",
		"og:image":          []any{"https://img/1.jpg", "https://img/2.jpg"},
		"og:site_name":      "Shop",
		"og:description":    "A cool shirt",
		"og:url":            "https://shop/cool-shirt",
	}

	t.Run("sample product falls back to metadata", func(t *testing.T) {
		ai := gjson.Parse(`{"title":"Sample Product","price":1,"category":"Shirts"}`)

		record, trusted := SelectProduct(ai, metadata)

		assert.False(t, trusted)

		require.NotNil(t, record.Title)
		assert.Equal(t, "Cool Shirt", *record.Title)
		require.NotNil(t, record.Price)
		assert.Equal(t, 19.99, *record.Price)
		assert.Equal(t, "USD", *record.Currency)
		assert.Equal(t, "https://img/1.jpg", *record.ImageURL)
		assert.Equal(t, "Shop", *record.SiteName)
		assert.Equal(t, "A cool shirt", *record.Description)
		assert.Equal(t, "https://shop/cool-shirt", *record.URL)
		assert.Nil(t, record.OriginalPrice)
		assert.Nil(t, record.Category)
		assert.Nil(t, record.LastChecked)
	})

	t.Run("trusted record is coerced", func(t *testing.T) {
		ai := gjson.Parse(`{
			"title":"Cool Shirt",
			"price":"17.50",
			"currency":"USD",
			"original_price":25,
			"category":"Shirts",
			"last_checked":"2026-01-02T03:04:05Z"
		}`)

		record, trusted := SelectProduct(ai, metadata)

		assert.True(t, trusted)

		assert.Equal(t, "Cool Shirt", *record.Title)
		assert.Equal(t, 17.5, *record.Price)
		assert.Equal(t, 25.0, *record.OriginalPrice)
		assert.Equal(t, "Shirts", *record.Category)
		require.NotNil(t, record.LastChecked)
		assert.True(t, record.LastChecked.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))
		assert.Nil(t, record.ImageURL)
		assert.Nil(t, record.SiteName)
	})

	t.Run("missing agent record falls back", func(t *testing.T) {
		record, trusted := SelectProduct(gjson.Result{}, metadata)

		assert.False(t, trusted)

		assert.Equal(t, "Cool Shirt", *record.Title)
	})
}

func TestProductFromMetadata_CamelCaseKeys(t *testing.T) {
	record := ProductFromMetadata(map[string]any{
		"ogTitle":    "Lamp",
		"ogImage":    "https://img/lamp.jpg",
		"ogSiteName": "Lights",
		"price":      42.0,
	})

	assert.Equal(t, "Lamp", *record.Title)
	assert.Equal(t, "https://img/lamp.jpg", *record.ImageURL)
	assert.Equal(t, "Lights", *record.SiteName)
	assert.Equal(t, 42.0, *record.Price)
	assert.Nil(t, record.Currency)
	assert.Nil(t, record.URL)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"19.99", 19.99, true},
		{"$1,299.00", 1299, true},
		{"1.299,00 €", 1299, true},
		{"12,50 EUR", 12.5, true},
		{"1,299", 1299, true},
		{"£7", 7, true},
		{"free", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePrice(tt.input)

			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}
