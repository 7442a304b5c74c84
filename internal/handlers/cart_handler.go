package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markethall/storefront-api/internal/cart"
	"github.com/markethall/storefront-api/internal/repository"
	"github.com/markethall/storefront-api/internal/service"
)

// CartHandler handles session cart HTTP requests.
type CartHandler struct {
	carts    cart.Store
	products *service.ProductService
	logger   *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts cart.Store, products *service.ProductService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

type addLineRequest struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart handles GET /api/cart/{sessionId}
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	crt, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, crt)
}

// AddLine handles POST /api/cart/{sessionId}/items
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionId")

	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.Error("failed to load product", "product_id", req.ProductID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	variant := product.Variant(req.VariantID)
	if req.VariantID != "" && variant == nil {
		writeError(w, http.StatusBadRequest, "Unknown product variant")
		return
	}

	line, err := h.carts.AddLine(ctx, sessionID, product, variant, req.Quantity)
	if err != nil {
		h.logger.Error("failed to add cart line", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, line)
}

// UpdateQuantity handles PUT /api/cart/{sessionId}/items/{lineId}.
// A quantity below 1 removes the line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionId")
	lineID := chi.URLParam(r, "lineId")

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.carts.UpdateQuantity(ctx, sessionID, lineID, req.Quantity); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "Cart line not found")
			return
		}
		h.logger.Error("failed to update cart line", "session_id", sessionID, "line_id", lineID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	crt, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to reload cart", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, crt)
}

// RemoveLine handles DELETE /api/cart/{sessionId}/items/{lineId}
func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	lineID := chi.URLParam(r, "lineId")

	if err := h.carts.RemoveLine(r.Context(), sessionID, lineID); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "Cart line not found")
			return
		}
		h.logger.Error("failed to remove cart line", "session_id", sessionID, "line_id", lineID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
