package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dealscout/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestPipeline_Offers(t *testing.T) {
	p := New(StandardDefaults(), zaptest.NewLogger(t))

	t.Run("fenced text under unexpected key", func(t *testing.T) {
		raw := domain.TextResult("```json\n{\"results\":[{\"title\":\"A\",\"image_url\":\"\",\"description\":\"\",\"price\":5,\"retailer\":\"R\",\"url\":\"https://r/a\"}]}\n```")

		offers, err := p.Offers(raw)

		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, "https://r/a", offers[0].URL)
	})

	t.Run("truncated wrapper raw output", func(t *testing.T) {
		raw := domain.WrapperResult{
			Raw: func() (string, error) { return `{"offers":[]"}`, nil },
		}

		offers, err := p.Offers(raw)

		require.NoError(t, err)
		assert.NotNil(t, offers)
		assert.Empty(t, offers)
	})

	t.Run("malformed text is reported", func(t *testing.T) {
		offers, err := p.Offers(domain.TextResult("no offers found"))

		assert.True(t, errors.Is(err, domain.ErrMalformedPayload))
		assert.NotNil(t, offers)
		assert.Empty(t, offers)
	})
}

func TestPipeline_Offers_DocumentOrderAcrossResultKinds(t *testing.T) {
	p := New(StandardDefaults(), zaptest.NewLogger(t))
	text := `{"results":[{"title":"R","image_url":"","description":"","price":5,"retailer":"Shop","url":"https://r/1"}],` +
		`"alternatives":[{"title":"A","image_url":"","description":"","price":4,"retailer":"Shop","url":"https://a/1"}]}`

	results := map[string]domain.AgentResult{
		"text": domain.TextResult(text),
		"wrapper": domain.WrapperResult{
			Structured: func() (any, error) { return json.RawMessage(text), nil },
		},
	}

	for name, raw := range results {
		t.Run(name, func(t *testing.T) {
			offers, err := p.Offers(raw)

			require.NoError(t, err)
			require.Len(t, offers, 1)
			assert.Equal(t, "R", offers[0].Title)
		})
	}
}

func TestPipeline_SimilarProducts(t *testing.T) {
	p := New(StandardDefaults(), zaptest.NewLogger(t))

	raw := domain.SequenceResult{
		map[string]any{"title": "Lamp", "url": "https://a"},
		map[string]any{"description": "nothing else"},
	}

	products, err := p.SimilarProducts(raw, "https://seed")

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Lamp", products[0].Title)
}

func TestPipeline_Product(t *testing.T) {
	p := New(StandardDefaults(), zaptest.NewLogger(t))
	metadata := map[string]any{"og:title": "Cool Shirt", "og:price:amount": "19.99"}

	t.Run("untrusted agent output falls back to metadata", func(t *testing.T) {
		record := p.Product(domain.MappingResult{"title": "Sample Product", "price": 1.0}, metadata)

		assert.Equal(t, "Cool Shirt", *record.Title)
		assert.Equal(t, 19.99, *record.Price)
	})

	t.Run("unparseable agent output falls back to metadata", func(t *testing.T) {
		record := p.Product(domain.TextResult("sorry"), metadata)

		assert.Equal(t, "Cool Shirt", *record.Title)
	})

	t.Run("nil agent output falls back to metadata", func(t *testing.T) {
		record := p.Product(nil, metadata)

		assert.Equal(t, 19.99, *record.Price)
	})

	t.Run("trusted agent output wins", func(t *testing.T) {
		record := p.Product(domain.TextResult(`{"title":"cool shirt","price":18}`), metadata)

		assert.Equal(t, "cool shirt", *record.Title)
		assert.Equal(t, 18.0, *record.Price)
		assert.Nil(t, record.Currency)
	})
}

func TestPipeline_Product_LogsMetadataFallback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := New(StandardDefaults(), zap.New(core))
	metadata := map[string]any{"og:title": "Cool Shirt"}

	p.Product(domain.TextResult(`{"title":"cool shirt"}`), metadata)
	assert.Equal(t, 0, logs.FilterMessage("using metadata-derived product record").Len())

	p.Product(domain.TextResult(`{"title":"Example Shirt"}`), metadata)
	assert.Equal(t, 1, logs.FilterMessage("using metadata-derived product record").Len())
}
