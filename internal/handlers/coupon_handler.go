package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markethall/storefront-api/internal/cart"
	"github.com/markethall/storefront-api/internal/coupon"
	"github.com/markethall/storefront-api/internal/pricing"
)

// couponEvaluator is the interface for coupon evaluation
type couponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal float64) (*coupon.Result, error)
	Stats() map[string]interface{}
}

// CouponHandler handles HTTP requests for coupon application
type CouponHandler struct {
	evaluator couponEvaluator
	carts     cart.Store
	logger    *slog.Logger
}

// NewCouponHandler creates a new CouponHandler
func NewCouponHandler(evaluator couponEvaluator, carts cart.Store, logger *slog.Logger) *CouponHandler {
	return &CouponHandler{
		evaluator: evaluator,
		carts:     carts,
		logger:    logger,
	}
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

// ApplyCoupon handles POST /api/cart/{sessionId}/coupon
// Evaluates the code against the session's current subtotal and returns the
// discount and resulting total. Nothing is consumed; consumption happens at
// checkout.
func (h *CouponHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "sessionId")

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	crt, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to load cart", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	res, err := h.evaluator.Evaluate(ctx, req.Code, crt.Subtotal)
	if err != nil {
		status, message := couponErrorResponse(err)
		if status == 0 {
			h.logger.Error("coupon evaluation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		writeJSON(w, status, map[string]interface{}{
			"valid":   false,
			"coupon":  coupon.Normalize(req.Code),
			"message": message,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"coupon":   res.Coupon.Code,
		"discount": res.Discount,
		"subtotal": crt.Subtotal,
		"total":    pricing.Total(crt.Subtotal, res.Discount),
	})
}

// GetStats handles GET /api/admin/coupons/stats (for debugging/monitoring)
func (h *CouponHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.evaluator.Stats()
	writeJSON(w, http.StatusOK, stats)
}

// couponErrorResponse maps an evaluation error to a status and user-facing
// message; a zero status means the error is internal.
func couponErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusNotFound, "Coupon not found or invalid"
	case errors.Is(err, coupon.ErrCouponExpired):
		return http.StatusUnprocessableEntity, "Coupon is outside its validity window"
	case errors.Is(err, coupon.ErrMinOrderNotMet):
		return http.StatusUnprocessableEntity, "Cart subtotal is below the coupon minimum"
	case errors.Is(err, coupon.ErrCouponExhausted):
		return http.StatusConflict, "Coupon usage limit reached"
	}
	return 0, ""
}
