package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// The time-to-live is fixed by the implementation and applied to every entry.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

// CatalogClient defines the interface for querying the remote product catalog
type CatalogClient interface {
	SearchProducts(ctx context.Context, term string, pageSize int, timeout time.Duration) ([]Product, error)
	GetProduct(ctx context.Context, code string, timeout time.Duration) (*Product, error)
}

// InsightGenerator produces a free-text dietary appraisal for a product
type InsightGenerator interface {
	GenerateInsight(ctx context.Context, product Product) (string, error)
}
