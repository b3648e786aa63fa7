package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/zakupnik/backend/internal/domain"
	"github.com/zakupnik/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search *usecase.SearchService
	cart   *usecase.CartService
	rules  *usecase.RuleProvider
	cache  domain.CacheRepository
	log    zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(search *usecase.SearchService, cart *usecase.CartService, rules *usecase.RuleProvider, cache domain.CacheRepository, log zerolog.Logger) *Handler {
	return &Handler{
		search: search,
		cart:   cart,
		rules:  rules,
		cache:  cache,
		log:    log,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "zakupnik-backend",
		"version": "1.0.0",
	})
}

// SearchBestPrice runs one best-price search. Failures to match are part
// of the decision and still answer 200; only infrastructure problems map
// to error statuses.
func (h *Handler) SearchBestPrice(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "search service not configured"})
		return
	}

	var req usecase.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, err := h.search.FindBestPrice(c.Request.Context(), &req)
	if err != nil {
		h.respondSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// cartItemRequest carries one "search and add to cart" call.
type cartItemRequest struct {
	UserID        string  `json:"userId" binding:"required"`
	ReferenceID   string  `json:"referenceId"`
	Name          string  `json:"name" binding:"required"`
	Quantity      int     `json:"quantity"`
	BrandCritical bool    `json:"brandCritical"`
	LastPrice     float64 `json:"lastPrice"`
}

// AddCartLine searches for the reference and snapshots the accepted
// decision into the user's cart in one round trip. A search that selects
// nothing answers 422 with the full decision so the client can explain it.
func (h *Handler) AddCartLine(c *gin.Context) {
	if h.search == nil || h.cart == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cart service not configured"})
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	decision, err := h.search.FindBestPrice(c.Request.Context(), &usecase.SearchRequest{
		ReferenceID:   req.ReferenceID,
		Name:          req.Name,
		Quantity:      req.Quantity,
		BrandCritical: req.BrandCritical,
		LastPrice:     req.LastPrice,
	})
	if err != nil {
		h.respondSearchError(c, err)
		return
	}
	if !decision.OK() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"decision": decision})
		return
	}

	ref := domain.ReferenceItem{
		ID:            req.ReferenceID,
		Name:          req.Name,
		BrandCritical: req.BrandCritical,
		LastPrice:     req.LastPrice,
	}
	line, err := h.cart.AddLine(c.Request.Context(), req.UserID, ref, decision, req.Quantity)
	switch {
	case errors.Is(err, domain.ErrCartConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "cart was modified concurrently, retry"})
		return
	case errors.Is(err, domain.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.log.Error().Err(err).Str("user", req.UserID).Msg("add cart line failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"line": line, "decision": decision})
}

// GetCart lists the user's cart lines.
func (h *Handler) GetCart(c *gin.Context) {
	if h.cart == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cart service not configured"})
		return
	}

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}

	lines, err := h.cart.Cart(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("list cart failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// Checkout groups the cart per supplier and evaluates order minimums,
// applying automatic top-ups for small deficits.
func (h *Handler) Checkout(c *gin.Context) {
	if h.cart == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cart service not configured"})
		return
	}

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}

	groups, err := h.cart.Checkout(c.Request.Context(), userID)
	switch {
	case errors.Is(err, domain.ErrCartConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "cart was modified concurrently, retry"})
		return
	case err != nil:
		h.log.Error().Err(err).Str("user", userID).Msg("checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if groups == nil {
		groups = []domain.SupplierGroup{}
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ClearCart removes every line from the user's cart.
func (h *Handler) ClearCart(c *gin.Context) {
	if h.cart == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "cart service not configured"})
		return
	}

	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId query parameter is required"})
		return
	}

	if err := h.cart.Clear(c.Request.Context(), userID); err != nil {
		h.log.Error().Err(err).Str("user", userID).Msg("clear cart failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// ReloadRules recompiles the rule tables from disk and drops cached
// decisions computed under the previous tables.
func (h *Handler) ReloadRules(c *gin.Context) {
	if h.rules == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "rule provider not configured"})
		return
	}

	if err := h.rules.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if flusher, ok := h.cache.(interface {
		DeletePrefix(ctx context.Context, prefix string) error
	}); ok {
		if err := flusher.DeletePrefix(c.Request.Context(), "decision:"); err != nil {
			h.log.Warn().Err(err).Msg("stale decisions were not flushed after reload")
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

// respondSearchError maps search-service failures to HTTP statuses.
func (h *Handler) respondSearchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog temporarily unavailable"})
	default:
		h.log.Error().Err(err).Msg("search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
