package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/service"
	"github.com/markethall/storefront-api/internal/storage"
)

// maxReceiptSize caps receipt uploads at 5 MiB.
const maxReceiptSize = 5 << 20

// CheckoutHandler handles order placement HTTP requests.
type CheckoutHandler struct {
	checkout *service.CheckoutService
	receipts storage.ObjectStore
	logger   *slog.Logger
}

// NewCheckoutHandler creates a new checkout handler. receipts may be nil when
// object storage is not configured; receipt uploads then fail with 503.
func NewCheckoutHandler(checkout *service.CheckoutService, receipts storage.ObjectStore, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		receipts: receipts,
		logger:   logger,
	}
}

// PlaceOrder handles POST /api/checkout/{sessionId}
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode checkout request", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.checkout.PlaceOrder(r.Context(), sessionID, req)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}

	h.logger.Info("order placed",
		"order_id", res.Order.ID,
		"order_number", res.Order.OrderNumber,
		"total", res.Order.TotalAmount,
		"notified", res.Notified,
	)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order":    res.Order,
		"notified": res.Notified,
	})
}

// UploadReceipt handles POST /api/checkout/{sessionId}/receipt.
// Accepts a multipart "receipt" file and returns the stored object's public
// URL, which the client passes back in the checkout submission.
func (h *CheckoutHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	if h.receipts == nil {
		writeError(w, http.StatusServiceUnavailable, "Receipt storage is not configured")
		return
	}

	// MaxBytesReader enforces the cap on the request itself; the same figure
	// passed to ParseMultipartForm only bounds in-memory buffering.
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptSize)
	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Receipt must be 5 MiB or smaller")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "A receipt file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "application/pdf" {
		writeError(w, http.StatusUnsupportedMediaType, "Receipt must be a JPEG, PNG, or PDF")
		return
	}

	key := fmt.Sprintf("receipts/%s%s", uuid.New().String(), path.Ext(header.Filename))
	url, err := h.receipts.Upload(r.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("receipt upload failed", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to store receipt")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"receiptUrl": url})
}

// writeCheckoutError maps service errors onto HTTP responses. Validation and
// coupon problems are the shopper's to fix; anything else is internal.
func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Validation failed",
			"field":   ve.Field,
			"message": fmt.Sprintf("%s %s", ve.Field, ve.Message),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrReceiptRequired):
		writeError(w, http.StatusBadRequest, "Bank transfer orders require a payment receipt")
	default:
		if status, message := couponErrorResponse(err); status != 0 {
			writeError(w, status, message)
			return
		}
		h.logger.Error("checkout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
