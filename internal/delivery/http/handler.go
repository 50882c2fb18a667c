package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/dealscout/backend/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductGetter fetches a single product record
type ProductGetter interface {
	GetProduct(ctx context.Context, url string) (*domain.ProductRecord, error)
}

// PriceComparer finds cheaper offers for a product
type PriceComparer interface {
	ComparePrice(ctx context.Context, req *domain.ComparisonRequest) ([]domain.Offer, error)
}

// SimilarFinder finds products similar to a product
type SimilarFinder interface {
	FindSimilar(ctx context.Context, req *domain.SimilarRequest) ([]domain.SimilarProduct, error)
}

// PriceExtractor reads a price out of page content
type PriceExtractor interface {
	ExtractPrice(ctx context.Context, content, url string) (*domain.PriceExtraction, error)
}

// Services bundles the use cases served over HTTP. Nil services answer 503.
type Services struct {
	Products   ProductGetter
	Comparison PriceComparer
	Similar    SimilarFinder
	Prices     PriceExtractor
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	services Services
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		services: services,
		logger:   logger.Named("handler"),
	}
}

type productRequest struct {
	URL string `json:"url" binding:"required"`
}

type extractPriceRequest struct {
	Content string `json:"content" binding:"required"`
	URL     string `json:"url"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dealscout-backend",
		"version": "1.0.0",
	})
}

// GetProduct handles product lookup requests
func (h *Handler) GetProduct(c *gin.Context) {
	if h.services.Products == nil {
		h.notConfigured(c, "product lookup")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	record, err := h.services.Products.GetProduct(c.Request.Context(), req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ComparePrice handles cheaper-offer requests
func (h *Handler) ComparePrice(c *gin.Context) {
	if h.services.Comparison == nil {
		h.notConfigured(c, "price comparison")
		return
	}

	var req domain.ComparisonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	offers, err := h.services.Comparison.ComparePrice(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offers": offers})
}

// FindSimilar handles similar-product requests
func (h *Handler) FindSimilar(c *gin.Context) {
	if h.services.Similar == nil {
		h.notConfigured(c, "similar products")
		return
	}

	var req domain.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	products, err := h.services.Similar.FindSimilar(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"similar_products": products})
}

// ExtractPrice handles price extraction requests
func (h *Handler) ExtractPrice(c *gin.Context) {
	if h.services.Prices == nil {
		h.notConfigured(c, "price extraction")
		return
	}

	var req extractPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.services.Prices.ExtractPrice(c.Request.Context(), req.Content, req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

func (h *Handler) notConfigured(c *gin.Context, feature string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": feature + " is not configured"})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrMissingPrecondition):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrMalformedPayload):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
