package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tumeware/SnackBar/internal/domain"
)

// Remote call budgets. The configured timeout is capped by these.
const (
	primarySearchTimeout  = 20 * time.Second
	fallbackSearchTimeout = 12 * time.Second
	maxFallbackPageSize   = 8
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	Timeout            time.Duration
	DefaultPageSize    int
	EnableDebugLogging bool
}

// CatalogService turns user queries into bounded, deduplicated,
// cached product lists and resolves single products by code
type CatalogService struct {
	cache           domain.CacheRepository
	catalog         domain.CatalogClient
	preprocessor    *QueryPreprocessor
	timeout         time.Duration
	defaultPageSize int
	logger          zerolog.Logger
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	cache domain.CacheRepository,
	catalog domain.CatalogClient,
	config CatalogServiceConfig,
	logger zerolog.Logger,
) *CatalogService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	pageSize := config.DefaultPageSize
	if pageSize <= 0 {
		pageSize = 12
	}

	logger = logger.With().Str("component", "catalog").Logger()

	return &CatalogService{
		cache:           cache,
		catalog:         catalog,
		preprocessor:    NewQueryPreprocessor(config.EnableDebugLogging, logger),
		timeout:         timeout,
		defaultPageSize: pageSize,
		logger:          logger,
	}
}

// DefaultPageSize is the page size used when callers pass none
func (s *CatalogService) DefaultPageSize() int {
	return s.defaultPageSize
}

// Search finds products for a free-text query.
// Flow: check cache -> literal search -> per-token fallback -> merge -> cache -> return.
// Upstream failures degrade to fewer results and are never returned;
// the only error is domain.ErrInvalidQuery, alongside an empty slice.
func (s *CatalogService) Search(ctx context.Context, query string, pageSize int) ([]domain.Product, error) {
	trimmed := strings.TrimSpace(query)
	if !ValidQuery(trimmed) {
		return []domain.Product{}, domain.ErrInvalidQuery
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}

	cacheKey := CacheKey(trimmed, pageSize)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	primary := s.safeSearch(ctx, trimmed, pageSize, min(s.timeout, primarySearchTimeout))
	if len(primary) > 0 {
		s.setInCache(ctx, cacheKey, primary)
		return slices.Clone(primary), nil
	}

	terms := s.preprocessor.FallbackTerms(trimmed)
	if len(terms) == 0 {
		return []domain.Product{}, nil
	}

	merged := s.fallbackSearch(ctx, terms, pageSize)
	s.setInCache(ctx, cacheKey, merged)

	s.logger.Info().
		Str("query", trimmed).
		Strs("terms", terms).
		Int("results", len(merged)).
		Msg("literal search empty, served token fallback")

	return slices.Clone(merged), nil
}

// fallbackSearch queries every token concurrently and merges the results
// in token order, keeping the first record seen for each code
func (s *CatalogService) fallbackSearch(ctx context.Context, terms []string, pageSize int) []domain.Product {
	timeout := min(s.timeout, fallbackSearchTimeout)
	size := min(pageSize, maxFallbackPageSize)

	batches := make([][]domain.Product, len(terms))
	var group errgroup.Group
	for i, term := range terms {
		i, term := i, term
		group.Go(func() error {
			batches[i] = s.safeSearch(ctx, term, size, timeout)
			return nil
		})
	}
	_ = group.Wait()

	return mergeByCode(batches, pageSize)
}

// mergeByCode flattens batches in order, dropping repeated codes, up to limit products
func mergeByCode(batches [][]domain.Product, limit int) []domain.Product {
	seen := make(map[string]struct{})
	merged := make([]domain.Product, 0, limit)
	for _, batch := range batches {
		for _, product := range batch {
			if _, dup := seen[product.Code]; dup {
				continue
			}
			seen[product.Code] = struct{}{}
			merged = append(merged, product)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

// safeSearch runs one catalog search, turning any failure into an empty result
func (s *CatalogService) safeSearch(ctx context.Context, term string, pageSize int, timeout time.Duration) []domain.Product {
	products, err := s.catalog.SearchProducts(ctx, term, pageSize, timeout)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("term", term).
			Dur("timeout", timeout).
			Msg("catalog search failed, continuing without its results")
		return nil
	}
	return products
}

// GetByCode looks up one product by its exact code.
// Unlike Search there is nothing to degrade to, so upstream failures are returned.
func (s *CatalogService) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrInvalidRequest
	}

	product, err := s.catalog.GetProduct(ctx, code, s.timeout)
	if err != nil {
		s.logger.Debug().Err(err).Str("code", code).Msg("product lookup failed")
		return nil, err
	}

	return product, nil
}

// getFromCache retrieves a search result from cache
func (s *CatalogService) getFromCache(ctx context.Context, key string) ([]domain.Product, bool) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	products, ok := value.([]domain.Product)
	if !ok {
		return nil, false
	}

	return slices.Clone(products), true
}

// setInCache stores a search result in cache
func (s *CatalogService) setInCache(ctx context.Context, key string, products []domain.Product) {
	if err := s.cache.Set(ctx, key, products); err != nil {
		// Caching is an optimisation; a failed write only costs a later remote call
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to cache search result")
	}
}
