package usecase

import (
	"fmt"

	"github.com/dealscout/backend/internal/domain"
)

const offerFields = "title, image_url, description, price (number), retailer, url"

// cleanerTask asks the agent to copy product fields out of scraped metadata
func cleanerTask(metadata map[string]any) domain.AgentTask {
	return domain.AgentTask{
		Name:      "product_cleaner",
		Role:      "product data cleaner",
		Goal:      "Extract and clean product data from e-commerce metadata JSON.",
		Backstory: "You are an expert product data extractor. Only use values from the input JSON. Never invent or guess.",
		Description: "Analyze the page metadata in the input data and extract the product fields. " +
			"Every value must come from the metadata. For each field try all plausible keys " +
			`(title: "og:title", "title", "product_title"; price: "og:price:amount", "price", "product:price:amount"; ` +
			`image_url: "og:image", "ogImage", "image"; site_name: "og:site_name", "ogSiteName"; ` +
			`description: "og:description", "description"; url: "og:url", "url", "ogUrl").`,
		ExpectedOutput: `A single JSON object {"title", "price" (number or null), "currency", "image_url", "site_name", ` +
			`"description", "url", "original_price": null, "category": null, "last_checked": null}. ` +
			`Use null for anything not present. Never output placeholder values such as "Sample Product".`,
		Context: metadata,
	}
}

// offerSearchTask asks the agent to turn one backend's search hits into offers
func offerSearchTask(source string, req *domain.ComparisonRequest, hits []domain.SearchHit) domain.AgentTask {
	return domain.AgentTask{
		Name:      source + "_offers",
		Role:      source + " search analyst",
		Goal:      fmt.Sprintf("Find all offers for %q cheaper than %.2f.", req.Title, req.Price),
		Backstory: "You are a professional price hunter who reads search results and finds the lowest prices online.",
		Description: fmt.Sprintf("From the %s search results in the input data, list offers for %q "+
			"(current price: %.2f). Only include listings that are the same product and show a price. "+
			"Each offer has: %s.", source, req.Title, req.Price, offerFields),
		ExpectedOutput: `{"offers": [{"title": "...", "image_url": "...", "description": "...", "price": 0.0, "retailer": "...", "url": "..."}]}`,
		Context: map[string]any{
			"product": req,
			"results": hits,
		},
	}
}

// synthesizerTask asks the agent to merge both branches' offers
func synthesizerTask(req *domain.ComparisonRequest, webOffers, exaOffers []domain.Offer) domain.AgentTask {
	return domain.AgentTask{
		Name: "offer_synthesizer",
		Role: "offer synthesizer",
		Goal: "Deduplicate, merge and sort all offers from both sources. Only return offers cheaper than the original price.",
		Backstory: "You are an expert at curating product offers. You merge, deduplicate, filter and sort offers " +
			"to present only the best cheaper options.",
		Description: fmt.Sprintf("You are given two lists of offers for %q (current price: %.2f). "+
			"1) Merge both lists, 2) remove duplicates (same url or same title and retailer), "+
			"3) drop offers with price >= %.2f, 4) sort by price ascending. Each offer has: %s.",
			req.Title, req.Price, req.Price, offerFields),
		ExpectedOutput: `Only this JSON: {"offers": [...]}. If there are no valid offers return {"offers": []}. No markdown, no commentary.`,
		Context: map[string]any{
			"duck_results": map[string]any{"offers": webOffers},
			"exa_results":  map[string]any{"offers": exaOffers},
		},
	}
}

// similarFilterTask asks the agent to keep the candidates relevant to the seed product
func similarFilterTask(req *domain.SimilarRequest, candidates []domain.SimilarProduct) domain.AgentTask {
	return domain.AgentTask{
		Name: "similar_filter",
		Role: "product processor",
		Goal: "Filter and rank similar products by relevance to the original product.",
		Backstory: "You are an expert at evaluating product similarity. For clothing you keep items of the same category; " +
			"for accessories you keep similar accessories. Always return some results when candidates exist.",
		Description: "Rank the candidate products in the input data by relevance to the original product. " +
			"Drop candidates that are clearly unrelated. Keep each candidate's url, title, price, retailer, image_url and description unchanged.",
		ExpectedOutput: `{"similar_products": [{"title": "...", "url": "...", "score": 0.0, "description": "...", "price": "...", "retailer": "...", "image_url": "..."}]}`,
		Context: map[string]any{
			"original_product": req,
			"candidates":       candidates,
		},
	}
}

// priceExtractorTask asks the agent to read prices out of page content
func priceExtractorTask(structured any, rawContent, pageURL string) domain.AgentTask {
	if len(rawContent) > 1200 {
		rawContent = rawContent[:1200]
	}
	return domain.AgentTask{
		Name: "price_extractor",
		Role: "e-commerce product data analyst",
		Goal: "Extract complete product information from structured data and raw content.",
		Backstory: "You interpret structured data (JSON-LD, microdata, meta tags) and visible page text. " +
			"You use structured data first and distinguish current prices, original prices and discounts.",
		Description: "Extract the product's current price, original price and discount. Use structured data when present " +
			"and reason over the raw content for missing fields. Give a confidence from 0 to 100 for each price.",
		ExpectedOutput: `{"title": "...", "current_price": {"value": "...", "currency": "...", "confidence": 0}, ` +
			`"original_price": {"value": "...", "currency": "...", "confidence": 0}, "overall_confidence": 0}`,
		Context: map[string]any{
			"structured":  structured,
			"raw_content": rawContent,
			"url":         pageURL,
		},
	}
}
