package usecase

import (
	"context"
	"sync"

	"github.com/dealscout/backend/internal/domain"
)

// MockScraper is a mock implementation of domain.Scraper
type MockScraper struct {
	result *domain.ScrapeResult
	err    error
	calls  int
}

func (m *MockScraper) Scrape(ctx context.Context, url string) (*domain.ScrapeResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// MockSearch is a mock implementation of domain.SearchClient
type MockSearch struct {
	hits []domain.SearchHit
	err  error

	mu      sync.Mutex
	queries []string
}

func (m *MockSearch) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.SearchHit(nil), m.hits...), nil
}

// MockFinder is a mock implementation of domain.SimilarFinder
type MockFinder struct {
	MockSearch

	similar    []domain.SearchHit
	similarErr error
	pages      []domain.PageContent
	pagesErr   error

	similarCalls int
	requested    []string
}

func (m *MockFinder) FindSimilar(ctx context.Context, url string, numResults int) ([]domain.SearchHit, error) {
	m.similarCalls++
	if m.similarErr != nil {
		return nil, m.similarErr
	}
	return append([]domain.SearchHit(nil), m.similar...), nil
}

func (m *MockFinder) Contents(ctx context.Context, urls []string) ([]domain.PageContent, error) {
	m.requested = append(m.requested, urls...)
	if m.pagesErr != nil {
		return nil, m.pagesErr
	}
	return m.pages, nil
}

// MockAgent is a mock implementation of domain.Agent that answers per task name
type MockAgent struct {
	responses map[string]domain.AgentResult
	errors    map[string]error

	mu    sync.Mutex
	tasks []domain.AgentTask
}

func NewMockAgent() *MockAgent {
	return &MockAgent{
		responses: map[string]domain.AgentResult{},
		errors:    map[string]error{},
	}
}

func (m *MockAgent) Run(ctx context.Context, task domain.AgentTask) (domain.AgentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tasks = append(m.tasks, task)
	if err, ok := m.errors[task.Name]; ok {
		return nil, err
	}
	if result, ok := m.responses[task.Name]; ok {
		return result, nil
	}
	return domain.TextResult(""), nil
}

func (m *MockAgent) called(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, task := range m.tasks {
		if task.Name == name {
			return true
		}
	}
	return false
}
