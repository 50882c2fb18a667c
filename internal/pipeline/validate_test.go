package pipeline

import (
	"testing"

	"github.com/dealscout/backend/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func records(t *testing.T, doc string) []gjson.Result {
	t.Helper()
	require.True(t, gjson.Valid(doc), "invalid fixture: %s", doc)
	return gjson.Parse(doc).Array()
}

func ptr[T any](v T) *T {
	return &v
}

func TestValidateOffers(t *testing.T) {
	v := NewValidator(StandardDefaults(), nil)

	input := records(t, `[
		{"title":"Shirt","image_url":"https://img/1.jpg","description":"Blue","price":12.5,"retailer":"Shop","url":" https://shop/1 "},
		"not an object",
		{"title":"Shirt","image_url":"","description":"","price":"12.50","retailer":"Shop","url":"https://shop/2"},
		{"title":"Shirt","image_url":"","description":"","price":9,"retailer":"Shop","url":"   "},
		{"title":"Shirt","description":"","price":9,"retailer":"Shop","url":"https://shop/3"},
		{"title":null,"image_url":"","description":"","price":9,"retailer":"Shop","url":"https://shop/4"},
		{"title":"Cap","image_url":"","description":"Red","price":7,"retailer":"Other","url":"https://other/5"}
	]`)

	offers, rejected := v.ValidateOffers(input)

	want := []domain.Offer{
		{Title: "Shirt", ImageURL: "https://img/1.jpg", Description: "Blue", Price: 12.5, Retailer: "Shop", URL: "https://shop/1"},
		{Title: "Cap", ImageURL: "https://via.placeholder.com/400", Description: "Red", Price: 7, Retailer: "Other", URL: "https://other/5"},
	}
	if diff := cmp.Diff(want, offers); diff != "" {
		t.Errorf("ValidateOffers() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, rejected)
}

func TestValidateOffers_EmptyInput(t *testing.T) {
	v := NewValidator(StandardDefaults(), nil)

	offers, rejected := v.ValidateOffers(nil)

	assert.NotNil(t, offers)
	assert.Empty(t, offers)
	assert.Zero(t, rejected)
}

func TestValidateSimilar(t *testing.T) {
	v := NewValidator(StandardDefaults(), nil)

	t.Run("fills placeholder image", func(t *testing.T) {
		products, rejected := v.ValidateSimilar(records(t, `[{"title":"T","url":"u"}]`), "")

		require.Len(t, products, 1)
		assert.Zero(t, rejected)
		assert.Equal(t, "T", products[0].Title)
		assert.Equal(t, "u", products[0].URL)
		assert.Equal(t, "https://via.placeholder.com/400", products[0].ImageURL)
		assert.Nil(t, products[0].Score)
		assert.Nil(t, products[0].Price)
	})

	t.Run("defaults missing title and url", func(t *testing.T) {
		products, _ := v.ValidateSimilar(records(t, `[{"url":"https://a"},{"title":"Only title"}]`), "https://fallback")

		require.Len(t, products, 2)
		assert.Equal(t, "Unknown Product", products[0].Title)
		assert.Equal(t, "https://a", products[0].URL)
		assert.Equal(t, "Only title", products[1].Title)
		assert.Equal(t, "https://fallback", products[1].URL)
	})

	t.Run("drops records with neither title nor url", func(t *testing.T) {
		products, rejected := v.ValidateSimilar(records(t, `[{"description":"d"},{"title":"","url":"  "},42,{"title":"ok"}]`), "")

		require.Len(t, products, 1)
		assert.Equal(t, 3, rejected)
		assert.Equal(t, "ok", products[0].Title)
		assert.Equal(t, "", products[0].URL)
	})

	t.Run("keeps optional fields of the right type", func(t *testing.T) {
		products, _ := v.ValidateSimilar(records(t, `[
			{"title":"A","url":"a","score":0.91,"description":"desc","price":"$20","retailer":"Shop","image_url":"https://img"},
			{"title":"B","url":"b","score":"high","description":5,"price":19.5,"retailer":null}
		]`), "")

		want := []domain.SimilarProduct{
			{Title: "A", URL: "a", Score: ptr(0.91), Description: ptr("desc"), Price: "$20", Retailer: ptr("Shop"), ImageURL: "https://img"},
			{Title: "B", URL: "b", Price: 19.5, ImageURL: "https://via.placeholder.com/400"},
		}
		if diff := cmp.Diff(want, products); diff != "" {
			t.Errorf("ValidateSimilar() mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestNewValidator_FillsMissingDefaults(t *testing.T) {
	v := NewValidator(Defaults{PlaceholderImageURL: "https://cdn/none.png"}, nil)

	assert.Equal(t, "Unknown Product", v.Defaults().UnknownTitle)
	assert.Equal(t, "https://cdn/none.png", v.Defaults().PlaceholderImageURL)
}
