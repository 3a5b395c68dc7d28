package openfoodfacts

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tumeware/SnackBar/internal/domain"
	"github.com/tumeware/SnackBar/internal/infrastructure/fetch"
)

// popularitySort asks the catalog to rank results by scan count
const popularitySort = "unique_scans_n"

// Fetcher is the single-call transport the client relies on
type Fetcher interface {
	Fetch(ctx context.Context, request fetch.Request, timeout time.Duration, out interface{}) error
}

// Client handles communication with the Open Food Facts catalog
type Client struct {
	fetcher Fetcher
	baseURL string
	fields  string
	logger  zerolog.Logger
}

// NewClient creates a new catalog client
func NewClient(fetcher Fetcher, baseURL string, logger zerolog.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: strings.TrimRight(baseURL, "/"),
		fields:  strings.Join(productFields, ","),
		logger:  logger.With().Str("component", "openfoodfacts").Logger(),
	}
}

// SearchProducts runs one full-text search sorted by popularity.
// Records without a code are dropped.
func (c *Client) SearchProducts(ctx context.Context, term string, pageSize int, timeout time.Duration) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("search_terms", term)
	params.Set("action", "process")
	params.Set("search_simple", "1")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(pageSize))
	params.Set("page", "1")
	params.Set("sort_by", popularitySort)
	params.Set("fields", c.fields)

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	var searchResp SearchResponse
	if err := c.fetcher.Fetch(ctx, fetch.Request{URL: reqURL}, timeout, &searchResp); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(searchResp.Products))
	for _, raw := range searchResp.Products {
		product := MapToProduct(raw)
		if product.Code == "" {
			continue
		}
		products = append(products, product)
	}

	c.logger.Debug().
		Str("term", term).
		Int("page_size", pageSize).
		Int("found", len(products)).
		Msg("catalog search finished")

	return products, nil
}

// GetProduct looks up a single product by its exact code
func (c *Client) GetProduct(ctx context.Context, code string, timeout time.Duration) (*domain.Product, error) {
	params := url.Values{}
	params.Set("code", code)
	params.Set("json", "1")
	params.Set("fields", c.fields)

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json?%s", c.baseURL, url.PathEscape(code), params.Encode())

	var productResp ProductResponse
	if err := c.fetcher.Fetch(ctx, fetch.Request{URL: reqURL}, timeout, &productResp); err != nil {
		return nil, err
	}

	if statusFlag(productResp.Status) != 1 || productResp.Product == nil {
		return nil, domain.ErrProductNotFound
	}

	product := MapToProduct(productResp.Product)
	if product.Code == "" {
		product.Code = code
	}

	return &product, nil
}
