package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/repository"
	"github.com/markethall/storefront-api/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// GetOrder handles GET /api/order/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")

	order, err := h.orderService.Get(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		h.log.Error("failed to get order", "order_id", orderID, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListOrders handles GET /api/admin/orders with an optional ?status= filter.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := models.OrderStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusPending, models.StatusApproved, models.StatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "Unknown status filter")
		return
	}

	orders, err := h.orderService.List(r.Context(), status)
	if err != nil {
		h.log.Error("failed to list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// ApproveOrder handles POST /api/admin/orders/{orderId}/approve
func (h *OrderHandler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Approve)
}

// RejectOrder handles POST /api/admin/orders/{orderId}/reject
func (h *OrderHandler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orderService.Reject)
}

func (h *OrderHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id string) (*models.Order, bool, error),
) {
	orderID := chi.URLParam(r, "orderId")

	order, notified, err := apply(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "Order is no longer pending")
		default:
			h.log.Error("failed to transition order", "order_id", orderID, "error", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	// notified=false is a partial success: the status changed but the
	// customer email did not go out.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"order":    order,
		"notified": notified,
	})
}
