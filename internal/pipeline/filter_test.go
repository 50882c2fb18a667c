package pipeline

import (
	"sort"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/dealscout/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offer(title, retailer, url string, price float64) domain.Offer {
	return domain.Offer{Title: title, Retailer: retailer, URL: url, Price: price}
}

func TestFilterSort(t *testing.T) {
	t.Run("drops offers at or above the reference price", func(t *testing.T) {
		got := FilterSort([]domain.Offer{
			offer("A", "r1", "a", 20),
			offer("B", "r2", "b", 25),
			offer("C", "r3", "c", 19.99),
		}, 20)

		require.Len(t, got, 1)
		assert.Equal(t, "C", got[0].Title)
	})

	t.Run("deduplicates urls case-insensitively", func(t *testing.T) {
		got := FilterSort([]domain.Offer{
			offer("One", "r1", "a", 10),
			offer("Two", "r2", "A", 10),
		}, 20)

		require.Len(t, got, 1)
		assert.Equal(t, "One", got[0].Title)
	})

	t.Run("deduplicates title and retailer pairs", func(t *testing.T) {
		got := FilterSort([]domain.Offer{
			offer("Shirt", "Shop", "https://shop/1", 12),
			offer("shirt", "SHOP", "https://shop/2", 9),
			offer("Shirt", "Other", "https://other/1", 11),
		}, 20)

		require.Len(t, got, 2)
		assert.Equal(t, "https://other/1", got[0].URL)
		assert.Equal(t, "https://shop/1", got[1].URL)
	})

	t.Run("sort is stable for equal prices", func(t *testing.T) {
		got := FilterSort([]domain.Offer{
			offer("A", "r1", "a", 5),
			offer("B", "r2", "b", 3),
			offer("C", "r3", "c", 5),
			offer("D", "r4", "d", 3),
		}, 10)

		var titles []string
		for _, o := range got {
			titles = append(titles, o.Title)
		}
		assert.Equal(t, []string{"B", "D", "A", "C"}, titles)
	})

	t.Run("returns empty slice when nothing qualifies", func(t *testing.T) {
		got := FilterSort([]domain.Offer{offer("A", "r", "a", 50)}, 10)

		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.NotNil(t, FilterSort(nil, 10))
	})
}

func randomOffers(faker *gofakeit.Faker, n int) []domain.Offer {
	retailers := []string{"Amazon", "Walmart", "Target", "eBay"}
	offers := make([]domain.Offer, n)
	for i := range offers {
		offers[i] = domain.Offer{
			Title:       faker.RandomString([]string{"Shirt", "Cap", "Mug", "Lamp", faker.ProductName()}),
			ImageURL:    faker.URL(),
			Description: faker.Sentence(6),
			Price:       faker.Price(1, 100),
			Retailer:    faker.RandomString(retailers),
			URL:         faker.RandomString([]string{"https://a.example/1", "https://A.example/1", faker.URL()}),
		}
	}
	return offers
}

func TestFilterSort_Properties(t *testing.T) {
	faker := gofakeit.New(42)

	for round := 0; round < 200; round++ {
		offers := randomOffers(faker, faker.Number(0, 30))
		reference := faker.Price(1, 100)

		once := FilterSort(offers, reference)
		twice := FilterSort(once, reference)

		require.Equal(t, once, twice, "FilterSort must be idempotent")
		require.True(t, sort.SliceIsSorted(once, func(i, j int) bool {
			return once[i].Price < once[j].Price
		}), "output must be sorted by price")

		for _, o := range once {
			require.Less(t, o.Price, reference)
		}
	}
}

func TestFilterSort_PairKey(t *testing.T) {
	tests := []struct {
		name   string
		offers []domain.Offer
		want   int
	}{
		{
			name: "untitled offers from one retailer",
			offers: []domain.Offer{
				offer("", "Amazon", "https://a.example/1", 5),
				offer("", "amazon", "https://a.example/2", 6),
			},
			want: 1,
		},
		{
			name: "untitled offers from different retailers",
			offers: []domain.Offer{
				offer("", "Amazon", "https://a.example/1", 5),
				offer("", "Walmart", "https://w.example/1", 6),
			},
			want: 2,
		},
		{
			name: "pair is not trimmed",
			offers: []domain.Offer{
				offer("Linen Shirt", "Zara", "https://z.example/1", 5),
				offer("Linen Shirt ", "zara", "https://z.example/2", 6),
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, FilterSort(tt.offers, 10), tt.want)
		})
	}
}
