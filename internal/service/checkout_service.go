package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/markethall/storefront-api/internal/cart"
	"github.com/markethall/storefront-api/internal/coupon"
	"github.com/markethall/storefront-api/internal/metrics"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/notifier"
	"github.com/markethall/storefront-api/internal/pricing"
	"github.com/markethall/storefront-api/internal/repository"
)

// CouponEvaluator is the slice of the coupon package the checkout flow needs.
type CouponEvaluator interface {
	Evaluate(ctx context.Context, code string, subtotal float64) (*coupon.Result, error)
}

// PlacementResult is a successful checkout. Notified reports whether the
// new-order notification was delivered; a false value is a qualified success,
// the order stands either way.
type PlacementResult struct {
	Order    *models.Order
	Notified bool
}

// CheckoutService turns cart + coupon + customer form into a persisted order.
type CheckoutService struct {
	carts         cart.Store
	orders        repository.OrderRepository
	evaluator     CouponEvaluator
	notifier      notifier.Notifier
	operatorEmail string
	log           *slog.Logger
	validate      *validator.Validate
	now           func() time.Time
}

// NewCheckoutService creates a checkout service. The evaluator may be nil
// when no coupons are configured; coupon codes are then rejected.
func NewCheckoutService(
	carts cart.Store,
	orders repository.OrderRepository,
	evaluator CouponEvaluator,
	n notifier.Notifier,
	operatorEmail string,
	log *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:         carts,
		orders:        orders,
		evaluator:     evaluator,
		notifier:      n,
		operatorEmail: operatorEmail,
		log:           log,
		validate:      validator.New(),
		now:           time.Now,
	}
}

// PlaceOrder validates the submission, prices the cart, and persists the
// order with its items in one transaction. Validation failures happen before
// any write; persistence failures leave no partial order behind. On success
// the cart is cleared and the new-order notification is sent best-effort.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string, req models.CheckoutRequest) (*PlacementResult, error) {
	// Trim before validating so whitespace-only fields fail the required and
	// length rules instead of sneaking past them and persisting as empty.
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	crt, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(crt.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	var (
		discountAmount float64
		couponCode     string
	)
	if req.CouponCode != "" {
		if s.evaluator == nil {
			return nil, coupon.ErrInvalidCoupon
		}
		res, err := s.evaluator.Evaluate(ctx, req.CouponCode, crt.Subtotal)
		if err != nil {
			metrics.CouponRejections.WithLabelValues(rejectionReason(err)).Inc()
			return nil, err
		}
		discountAmount = res.Discount
		couponCode = res.Coupon.Code
	}

	now := s.now()
	order := &models.Order{
		ID:             uuid.New().String(),
		OrderNumber:    newOrderNumber(now),
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		Address:        req.Address,
		Phone:          req.Phone,
		Status:         models.StatusPending,
		PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		ReceiptURL:     req.ReceiptURL,
		TotalAmount:    pricing.Total(crt.Subtotal, discountAmount),
		CouponCode:     couponCode,
		DiscountAmount: discountAmount,
		CreatedAt:      now,
	}
	if user, ok := UserFrom(ctx); ok {
		order.UserID = user.ID
	}

	order.Items = make([]models.OrderItem, 0, len(crt.Lines))
	for _, line := range crt.Lines {
		order.Items = append(order.Items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Subtotal:    pricing.LineSubtotal(line.UnitPrice, line.Quantity),
		})
	}

	if err := s.orders.Place(ctx, order, couponCode); err != nil {
		if errors.Is(err, repository.ErrCouponExhausted) {
			metrics.CouponRejections.WithLabelValues("exhausted").Inc()
			return nil, coupon.ErrCouponExhausted
		}
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.carts.Clear(ctx, sessionID); err != nil {
		// The order is placed; a stale cart is an annoyance, not a failure.
		s.log.Warn("failed to clear cart after checkout", "session_id", sessionID, "error", err)
	}

	metrics.OrdersPlaced.Inc()

	notified := s.sendNotification(ctx, notifier.Event{
		Type:      notifier.EventNewOrder,
		Recipient: s.operatorEmail,
		Order:     order,
	})

	return &PlacementResult{Order: order, Notified: notified}, nil
}

// validateRequest runs tag validation plus the payment-method rule. The first
// failing field is surfaced as a ValidationError.
func (s *CheckoutService) validateRequest(req models.CheckoutRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{
				Field:   strings.ToLower(verrs[0].Field()[:1]) + verrs[0].Field()[1:],
				Message: validationMessage(verrs[0]),
			}
		}
		return &ValidationError{Field: "request", Message: "invalid submission"}
	}

	if models.PaymentMethod(req.PaymentMethod) == models.PaymentBankTransfer && req.ReceiptURL == "" {
		return ErrReceiptRequired
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	}
	return "is invalid"
}

// sendNotification delivers ev, tolerating failure. The caller's write stands
// regardless of the outcome.
func (s *CheckoutService) sendNotification(ctx context.Context, ev notifier.Event) bool {
	if s.notifier == nil || ev.Recipient == "" {
		return false
	}
	if err := s.notifier.Send(ctx, ev); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(ev.Type)).Inc()
		s.log.Error("notification send failed",
			"event", string(ev.Type),
			"order_id", ev.Order.ID,
			"error", err,
		)
		return false
	}
	return true
}

// newOrderNumber builds the customer-facing order identifier: a date prefix
// for readability and a UUID-derived suffix for uniqueness under concurrent
// submissions.
func newOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), suffix)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, coupon.ErrCouponExpired):
		return "expired"
	case errors.Is(err, coupon.ErrMinOrderNotMet):
		return "min_order"
	case errors.Is(err, coupon.ErrCouponExhausted):
		return "exhausted"
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return "invalid"
	}
	return "error"
}
