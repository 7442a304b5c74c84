package service

import (
	"context"
	"log/slog"

	"github.com/markethall/storefront-api/internal/metrics"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/notifier"
	"github.com/markethall/storefront-api/internal/repository"
)

// OrderService handles order reads and the administrator status transitions.
// The status machine is pending -> approved and pending -> rejected; both
// targets are terminal.
type OrderService struct {
	orders   repository.OrderRepository
	notifier notifier.Notifier
	log      *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders repository.OrderRepository, n notifier.Notifier, log *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		notifier: n,
		log:      log,
	}
}

// Get returns an order with its items.
func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns orders, optionally filtered by status.
func (s *OrderService) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return s.orders.List(ctx, status)
}

// Approve transitions a pending order to approved and notifies the customer.
// The returned flag reports notification delivery; a false value is a partial
// success, the transition stands.
func (s *OrderService) Approve(ctx context.Context, id string) (*models.Order, bool, error) {
	return s.transition(ctx, id, models.StatusApproved, notifier.EventOrderApproved)
}

// Reject transitions a pending order to rejected and notifies the customer.
func (s *OrderService) Reject(ctx context.Context, id string) (*models.Order, bool, error) {
	return s.transition(ctx, id, models.StatusRejected, notifier.EventOrderRejected)
}

func (s *OrderService) transition(ctx context.Context, id string, target models.OrderStatus, event notifier.EventType) (*models.Order, bool, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if order.Status != models.StatusPending {
		return nil, false, ErrInvalidTransition
	}

	if err := s.orders.UpdateStatus(ctx, id, target); err != nil {
		return nil, false, err
	}
	order.Status = target
	metrics.OrderStatusTransitions.WithLabelValues(string(target)).Inc()

	notified := false
	if s.notifier != nil {
		err := s.notifier.Send(ctx, notifier.Event{
			Type:      event,
			Recipient: order.CustomerEmail,
			Order:     order,
		})
		if err != nil {
			metrics.NotificationFailures.WithLabelValues(string(event)).Inc()
			s.log.Error("status notification failed",
				"event", string(event),
				"order_id", order.ID,
				"error", err,
			)
		} else {
			notified = true
		}
	}

	return order, notified, nil
}
