package models

// CartLine is a single product(+variant)/quantity entry in a shopper's cart.
// The unit price is captured from the product at add time (sale price when on
// sale).
type CartLine struct {
	ID          string  `json:"lineId"`
	ProductID   string  `json:"productId"`
	VariantID   string  `json:"variantId,omitempty"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `json:"quantity"`
	MaxQuantity int     `json:"maxQuantity,omitempty"`
}

// Cart is a snapshot of a session's cart with derived totals.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Lines     []CartLine `json:"lines"`
	Subtotal  float64    `json:"subtotal"`
	Count     int        `json:"count"`
}

// CheckoutRequest carries the customer-supplied fields of a checkout
// submission. Validation tags are enforced before any write happens.
type CheckoutRequest struct {
	CustomerName  string `json:"customerName" validate:"required,max=255"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	Address       string `json:"address" validate:"required,min=10"`
	Phone         string `json:"phone" validate:"required,min=7,max=20"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=cod bank_transfer"`
	CouponCode    string `json:"couponCode,omitempty"`
	ReceiptURL    string `json:"receiptUrl,omitempty" validate:"omitempty,url"`
}
