package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tumeware/SnackBar/internal/domain"
)

const serviceVersion = "1.0.0"

// ProductCatalog is the catalog capability the handlers need
type ProductCatalog interface {
	Search(ctx context.Context, query string, pageSize int) ([]domain.Product, error)
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
}

// ProductAnalyzer produces the AI appraisal and alternatives for a product
type ProductAnalyzer interface {
	Analyze(ctx context.Context, product domain.Product) (*domain.Analysis, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog  ProductCatalog
	analyzer ProductAnalyzer
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog ProductCatalog, analyzer ProductAnalyzer, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog:  catalog,
		analyzer: analyzer,
		logger:   logger.With().Str("component", "http").Logger(),
	}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// SearchRequest is the query string of GET /api/search
type SearchRequest struct {
	Query string `form:"q" binding:"required,min=2"`
}

// ProductRequest is the path of GET /api/products/:code
type ProductRequest struct {
	Code string `uri:"code" binding:"required,min=5"`
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Product *domain.Product `json:"product" binding:"required"`
}

// ProductResponse carries a product with its numeric nutrient table
type ProductResponse struct {
	Data      domain.Product       `json:"data"`
	Nutrition []domain.NutrientRow `json:"nutrition"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "snackbar-backend",
		"version": serviceVersion,
	})
}

// SearchProducts handles free-text product searches
func (h *Handler) SearchProducts(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.respondValidation(c, "Query must be at least 2 characters", err)
		return
	}

	products, err := h.catalog.Search(c.Request.Context(), req.Query, 0)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// GetProduct handles lookups of a single product by barcode
func (h *Handler) GetProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.respondValidation(c, "Product code must be at least 5 characters", err)
		return
	}

	product, err := h.catalog.GetByCode(c.Request.Context(), req.Code)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProductResponse{
		Data:      *product,
		Nutrition: domain.NutrientRows(domain.GroupNutrients(product.Nutriments)),
	})
}

// AnalyzeProduct returns the AI appraisal of a product together with alternatives
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondValidation(c, "Invalid product payload", err)
		return
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), *req.Product)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analysis})
}

func (h *Handler) respondValidation(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Detail: err.Error()})
}

// respondError maps the domain error taxonomy onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	status, body := errorResponse(err)

	event := h.logger.Warn()
	if status >= http.StatusInternalServerError {
		event = h.logger.Error()
	}
	event.Err(err).
		Str("request_id", c.GetString(requestIDKey)).
		Int("status", status).
		Msg("request failed")

	c.JSON(status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	var remoteErr *domain.RemoteError

	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Product not found"}
	case errors.Is(err, domain.ErrInsightUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "AI API key puuttuu. Lisää SNACKBAR_INSIGHT_API_KEY ympäristöön."}
	case errors.Is(err, domain.ErrInsightFailed):
		return http.StatusBadGateway, ErrorResponse{Error: "AI-analyysi epäonnistui.", Detail: err.Error()}
	case errors.Is(err, domain.ErrTimedOut):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "Rajapintapyyntö aikakatkaistiin. Kokeile uudelleen."}
	case errors.Is(err, domain.ErrTransportFailure),
		errors.Is(err, domain.ErrInvalidResponse),
		errors.As(err, &remoteErr):
		return http.StatusBadGateway, ErrorResponse{Error: "Yhteys Open Food Facts -rajapintaan epäonnistui.", Detail: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Unexpected server error", Detail: err.Error()}
	}
}
