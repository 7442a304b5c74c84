package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethall/storefront-api/internal/cart"
	"github.com/markethall/storefront-api/internal/coupon"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/notifier"
	"github.com/markethall/storefront-api/internal/repository"
)

type stubNotifier struct {
	events []notifier.Event
	fail   bool
}

func (n *stubNotifier) Send(ctx context.Context, ev notifier.Event) error {
	if n.fail {
		return errors.New("smtp connection refused")
	}
	n.events = append(n.events, ev)
	return nil
}

// failingOrderRepo simulates an item-write failure inside the placement
// transaction: Place returns an error and, per the rollback policy, stores
// nothing.
type failingOrderRepo struct {
	*repository.InMemoryOrderRepository
}

func (r *failingOrderRepo) Place(ctx context.Context, order *models.Order, couponCode string) error {
	return errors.New("insert order_items: connection reset")
}

type checkoutFixture struct {
	carts    *cart.MemoryStore
	store    *repository.MemoryStore
	notifier *stubNotifier
	svc      *CheckoutService
}

func newCheckoutFixture(t *testing.T, coupons ...models.Coupon) *checkoutFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	if len(coupons) > 0 {
		store.Coupons().(*repository.InMemoryCouponRepository).Seed(coupons)
	}

	carts := cart.NewMemoryStore()
	ev := coupon.NewEvaluator(store.Coupons())
	n := &stubNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &checkoutFixture{
		carts:    carts,
		store:    store,
		notifier: n,
		svc:      NewCheckoutService(carts, store.Orders(), ev, n, "ops@example.com", log),
	}
}

func validRequest() models.CheckoutRequest {
	return models.CheckoutRequest{
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		Address:       "12 Analytical Row, London",
		Phone:         "07700900123",
		PaymentMethod: "cod",
	}
}

func addLine(t *testing.T, f *checkoutFixture, session string, price float64, qty int) {
	t.Helper()
	p := models.Product{ID: "p-" + session, Name: "Test Product", BasePrice: price}
	_, err := f.carts.AddLine(context.Background(), session, &p, nil, qty)
	require.NoError(t, err)
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	// Scenario: one line of (1000 x 2), no coupon.
	f := newCheckoutFixture(t)
	ctx := context.Background()
	addLine(t, f, "sess", 1000, 2)

	res, err := f.svc.PlaceOrder(ctx, "sess", validRequest())
	require.NoError(t, err)

	o := res.Order
	assert.Equal(t, 2000.0, o.TotalAmount)
	assert.Zero(t, o.DiscountAmount)
	assert.Empty(t, o.CouponCode)
	assert.Equal(t, models.StatusPending, o.Status)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2000.0, o.Items[0].Subtotal)
	assert.Equal(t, 2, o.Items[0].Quantity)

	// Order is persisted and the cart is cleared.
	stored, err := f.store.Orders().GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, stored.OrderNumber)

	crt, _ := f.carts.Get(ctx, "sess")
	assert.Empty(t, crt.Lines)

	// Operator got the new-order notification.
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, notifier.EventNewOrder, f.notifier.events[0].Type)
	assert.Equal(t, "ops@example.com", f.notifier.events[0].Recipient)
	assert.True(t, res.Notified)
}

func TestPlaceOrder_PercentageCouponCapped(t *testing.T) {
	// Scenario: subtotal 5000, 10% coupon capped at 300.
	f := newCheckoutFixture(t, models.Coupon{
		Code: "TENOFF", DiscountType: models.DiscountPercentage, DiscountValue: 10, MaxDiscount: 300, IsActive: true,
	})
	addLine(t, f, "sess", 5000, 1)

	req := validRequest()
	req.CouponCode = "tenoff"

	res, err := f.svc.PlaceOrder(context.Background(), "sess", req)
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.Order.DiscountAmount)
	assert.Equal(t, 4700.0, res.Order.TotalAmount)
	assert.Equal(t, "TENOFF", res.Order.CouponCode)
}

func TestPlaceOrder_FixedCouponClampedToSubtotal(t *testing.T) {
	// Scenario: subtotal 200, fixed 500 coupon. Discount clamps to the
	// subtotal so the total floors at zero instead of going negative.
	f := newCheckoutFixture(t, models.Coupon{
		Code: "FLAT500", DiscountType: models.DiscountFixed, DiscountValue: 500, IsActive: true,
	})
	addLine(t, f, "sess", 200, 1)

	req := validRequest()
	req.CouponCode = "FLAT500"

	res, err := f.svc.PlaceOrder(context.Background(), "sess", req)
	require.NoError(t, err)
	assert.Equal(t, 200.0, res.Order.DiscountAmount)
	assert.Equal(t, 0.0, res.Order.TotalAmount)
}

func TestPlaceOrder_BankTransferRequiresReceipt(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	addLine(t, f, "sess", 1000, 1)

	req := validRequest()
	req.PaymentMethod = "bank_transfer"

	_, err := f.svc.PlaceOrder(ctx, "sess", req)
	assert.ErrorIs(t, err, ErrReceiptRequired)

	// Rejected before any write: no orders, cart untouched.
	orders, _ := f.store.Orders().List(ctx, "")
	assert.Empty(t, orders)
	crt, _ := f.carts.Get(ctx, "sess")
	assert.Len(t, crt.Lines, 1)
	assert.Empty(t, f.notifier.events)
}

func TestPlaceOrder_BankTransferWithReceipt(t *testing.T) {
	f := newCheckoutFixture(t)
	addLine(t, f, "sess", 1000, 1)

	req := validRequest()
	req.PaymentMethod = "bank_transfer"
	req.ReceiptURL = "https://receipts.example.com/r/abc123.jpg"

	res, err := f.svc.PlaceOrder(context.Background(), "sess", req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentBankTransfer, res.Order.PaymentMethod)
	assert.Equal(t, req.ReceiptURL, res.Order.ReceiptURL)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.CheckoutRequest)
		field  string
	}{
		{
			name:   "missing name",
			mutate: func(r *models.CheckoutRequest) { r.CustomerName = "" },
			field:  "customerName",
		},
		{
			name:   "bad email",
			mutate: func(r *models.CheckoutRequest) { r.CustomerEmail = "not-an-email" },
			field:  "customerEmail",
		},
		{
			name:   "missing address",
			mutate: func(r *models.CheckoutRequest) { r.Address = "" },
			field:  "address",
		},
		{
			name:   "missing phone",
			mutate: func(r *models.CheckoutRequest) { r.Phone = "" },
			field:  "phone",
		},
		{
			name:   "unknown payment method",
			mutate: func(r *models.CheckoutRequest) { r.PaymentMethod = "crypto" },
			field:  "paymentMethod",
		},
		{
			name:   "whitespace-only name",
			mutate: func(r *models.CheckoutRequest) { r.CustomerName = "   " },
			field:  "customerName",
		},
		{
			name:   "whitespace-only phone",
			mutate: func(r *models.CheckoutRequest) { r.Phone = "       " },
			field:  "phone",
		},
		{
			name:   "whitespace-padded short address",
			mutate: func(r *models.CheckoutRequest) { r.Address = "   1 Row   " },
			field:  "address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture(t)
			ctx := context.Background()
			addLine(t, f, "sess", 1000, 1)

			req := validRequest()
			tt.mutate(&req)

			_, err := f.svc.PlaceOrder(ctx, "sess", req)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, tt.field, ve.Field)

			orders, _ := f.store.Orders().List(ctx, "")
			assert.Empty(t, orders, "validation must short-circuit before any write")
		})
	}
}

func TestPlaceOrder_TrimsCustomerFields(t *testing.T) {
	f := newCheckoutFixture(t)
	addLine(t, f, "sess", 1000, 1)

	req := validRequest()
	req.CustomerName = "  Ada Lovelace  "
	req.Phone = " 07700900123 "

	res, err := f.svc.PlaceOrder(context.Background(), "sess", req)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", res.Order.CustomerName)
	assert.Equal(t, "07700900123", res.Order.Phone)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.PlaceOrder(context.Background(), "sess", validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_InvalidCoupon(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	addLine(t, f, "sess", 1000, 1)

	req := validRequest()
	req.CouponCode = "NOPE"

	_, err := f.svc.PlaceOrder(ctx, "sess", req)
	assert.ErrorIs(t, err, coupon.ErrInvalidCoupon)

	orders, _ := f.store.Orders().List(ctx, "")
	assert.Empty(t, orders)
}

func TestPlaceOrder_CouponUsageConsumed(t *testing.T) {
	f := newCheckoutFixture(t, models.Coupon{
		Code: "ONEUSE", DiscountType: models.DiscountFixed, DiscountValue: 50, UsageLimit: 1, IsActive: true,
	})
	ctx := context.Background()

	addLine(t, f, "first", 1000, 1)
	req := validRequest()
	req.CouponCode = "ONEUSE"
	_, err := f.svc.PlaceOrder(ctx, "first", req)
	require.NoError(t, err)

	c, err := f.store.Coupons().GetByCode(ctx, "ONEUSE")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)

	// The second checkout finds the limit consumed.
	addLine(t, f, "second", 1000, 1)
	_, err = f.svc.PlaceOrder(ctx, "second", req)
	assert.ErrorIs(t, err, coupon.ErrCouponExhausted)
}

func TestPlaceOrder_PersistenceFailureLeavesNoOrphan(t *testing.T) {
	// Scenario: the item write inside the placement transaction fails. The
	// caller sees a persistence error and the rollback policy leaves no
	// order row behind; the cart survives for retry.
	f := newCheckoutFixture(t)
	ctx := context.Background()
	addLine(t, f, "sess", 1000, 2)

	failing := &failingOrderRepo{InMemoryOrderRepository: repository.NewInMemoryOrderRepository()}
	svc := NewCheckoutService(f.carts, failing, nil, f.notifier, "ops@example.com", slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.PlaceOrder(ctx, "sess", validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist order")

	orders, _ := failing.List(ctx, "")
	assert.Empty(t, orders, "rollback policy: no orphaned order row")

	crt, _ := f.carts.Get(ctx, "sess")
	assert.Len(t, crt.Lines, 1, "cart is preserved for retry")
	assert.Empty(t, f.notifier.events, "no notification for a failed placement")
}

func TestPlaceOrder_NotificationFailureIsQualifiedSuccess(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()
	addLine(t, f, "sess", 1000, 1)
	f.notifier.fail = true

	res, err := f.svc.PlaceOrder(ctx, "sess", validRequest())
	require.NoError(t, err, "notification failure must not unwind the order")
	assert.False(t, res.Notified)

	stored, err := f.store.Orders().GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
}

func TestPlaceOrder_VariantDisplayNames(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	tee := models.Product{
		ID: "p9", Name: "Logo Tee", BasePrice: 19.99,
		Variants: []models.ProductVariant{{ID: "v1", ProductID: "p9", Label: "M"}},
	}
	_, err := f.carts.AddLine(ctx, "sess", &tee, &tee.Variants[0], 1)
	require.NoError(t, err)

	res, err := f.svc.PlaceOrder(ctx, "sess", validRequest())
	require.NoError(t, err)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "Logo Tee (M)", res.Order.Items[0].ProductName)
	assert.Equal(t, "v1", res.Order.Items[0].VariantID)
}

func TestPlaceOrder_AttachesIdentityWhenPresent(t *testing.T) {
	f := newCheckoutFixture(t)
	addLine(t, f, "sess", 1000, 1)

	ctx := WithUser(context.Background(), User{ID: "u-42", Email: "ada@example.com"})
	res, err := f.svc.PlaceOrder(ctx, "sess", validRequest())
	require.NoError(t, err)
	assert.Equal(t, "u-42", res.Order.UserID)
}

func TestOrderNumberFormat(t *testing.T) {
	f := newCheckoutFixture(t)
	addLine(t, f, "sess", 1000, 1)

	res, err := f.svc.PlaceOrder(context.Background(), "sess", validRequest())
	require.NoError(t, err)

	matched := regexp.MustCompile(`^ORD-\d{8}-[0-9A-F]{8}$`).MatchString(res.Order.OrderNumber)
	assert.True(t, matched, "order number %q", res.Order.OrderNumber)
	assert.NotEqual(t, res.Order.OrderNumber, res.Order.ID)
}
