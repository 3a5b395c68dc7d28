package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/tumeware/SnackBar/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository.
// When ttl is set, entries expire against the mock's own clock.
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]mockCacheEntry
	ttl       time.Duration
	now       time.Time
	getError  error
	setError  error
	getCalled int
	setCalled int
}

type mockCacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]mockCacheEntry),
		now:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled++
	if m.getError != nil {
		return nil, m.getError
	}
	entry, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if m.ttl > 0 && m.now.After(entry.expiresAt) {
		delete(m.data, key)
		return nil, domain.ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = mockCacheEntry{value: value, expiresAt: m.now.Add(m.ttl)}
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *MockCacheRepository) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// searchCall records the arguments of one SearchProducts call
type searchCall struct {
	Term     string
	PageSize int
	Timeout  time.Duration
}

// MockCatalogClient is a mock implementation of domain.CatalogClient.
// Search results are keyed by term; unknown terms return no products.
type MockCatalogClient struct {
	mu            sync.Mutex
	searchResults map[string][]domain.Product
	searchErrors  map[string]error
	searchCalls   []searchCall
	product       *domain.Product
	productError  error
	productCalls  []string
}

func NewMockCatalogClient() *MockCatalogClient {
	return &MockCatalogClient{
		searchResults: make(map[string][]domain.Product),
		searchErrors:  make(map[string]error),
	}
}

func (m *MockCatalogClient) SearchProducts(ctx context.Context, term string, pageSize int, timeout time.Duration) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls = append(m.searchCalls, searchCall{Term: term, PageSize: pageSize, Timeout: timeout})
	if err := m.searchErrors[term]; err != nil {
		return nil, err
	}
	results := m.searchResults[term]
	if len(results) > pageSize {
		results = results[:pageSize]
	}
	return results, nil
}

func (m *MockCatalogClient) GetProduct(ctx context.Context, code string, timeout time.Duration) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.productCalls = append(m.productCalls, code)
	if m.productError != nil {
		return nil, m.productError
	}
	return m.product, nil
}

func (m *MockCatalogClient) Calls() []searchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]searchCall(nil), m.searchCalls...)
}

// MockInsightGenerator is a mock implementation of domain.InsightGenerator
type MockInsightGenerator struct {
	insight string
	err     error
	delay   time.Duration
}

func (m *MockInsightGenerator) GenerateInsight(ctx context.Context, product domain.Product) (string, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.insight, nil
}

func productsWithCodes(codes ...string) []domain.Product {
	out := make([]domain.Product, 0, len(codes))
	for _, code := range codes {
		out = append(out, domain.Product{Code: code, Name: "Product " + code})
	}
	return out
}

func codesOf(list []domain.Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.Code)
	}
	return out
}

func scorePtr(s domain.NutritionScore) *domain.NutritionScore {
	return &s
}

func strPtr(s string) *string {
	return &s
}
