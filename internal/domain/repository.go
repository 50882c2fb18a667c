package domain

import "context"

// Scraper fetches a page and its metadata through the scraping service
type Scraper interface {
	Scrape(ctx context.Context, url string) (*ScrapeResult, error)
}

// SearchClient runs a free-text product search
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchHit, error)
}

// SimilarFinder finds pages similar to a seed URL and fetches their contents
type SimilarFinder interface {
	SearchClient
	FindSimilar(ctx context.Context, url string, numResults int) ([]SearchHit, error)
	Contents(ctx context.Context, urls []string) ([]PageContent, error)
}

// Agent runs a single task against a language-model backend
type Agent interface {
	Run(ctx context.Context, task AgentTask) (AgentResult, error)
}
