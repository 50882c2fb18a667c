package pipeline

import (
	"sort"
	"strings"

	"github.com/dealscout/backend/internal/domain"
)

// FilterSort keeps offers strictly cheaper than referencePrice, drops
// duplicates (same url, or same title and retailer) keeping the first seen,
// and orders the rest by ascending price. Equal prices keep input order.
func FilterSort(offers []domain.Offer, referencePrice float64) []domain.Offer {
	result := make([]domain.Offer, 0, len(offers))
	seenURLs := make(map[string]struct{}, len(offers))
	seenPairs := make(map[[2]string]struct{}, len(offers))

	for _, offer := range offers {
		// Also drops NaN prices
		if !(offer.Price < referencePrice) {
			continue
		}

		urlKey := strings.ToLower(strings.TrimSpace(offer.URL))
		pairKey := [2]string{strings.ToLower(offer.Title), strings.ToLower(offer.Retailer)}

		if urlKey != "" {
			if _, dup := seenURLs[urlKey]; dup {
				continue
			}
		}
		if _, dup := seenPairs[pairKey]; dup {
			continue
		}

		if urlKey != "" {
			seenURLs[urlKey] = struct{}{}
		}
		seenPairs[pairKey] = struct{}{}
		result = append(result, offer)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Price < result[j].Price
	})
	return result
}
