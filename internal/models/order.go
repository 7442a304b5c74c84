package models

import "time"

// OrderStatus is the lifecycle state of an order. Orders are created pending;
// an administrator moves them to approved or rejected, both terminal.
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusApproved OrderStatus = "approved"
	StatusRejected OrderStatus = "rejected"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentCOD          PaymentMethod = "cod"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// Order is a confirmed customer order together with its line items.
type Order struct {
	ID             string        `gorm:"primaryKey" json:"id"`
	OrderNumber    string        `gorm:"uniqueIndex;not null" json:"orderNumber"`
	UserID         string        `gorm:"index" json:"userId,omitempty"`
	CustomerName   string        `gorm:"not null" json:"customerName"`
	CustomerEmail  string        `gorm:"not null" json:"customerEmail"`
	Address        string        `gorm:"not null" json:"address"`
	Phone          string        `gorm:"not null" json:"phone"`
	Status         OrderStatus   `gorm:"index;not null" json:"status"`
	PaymentMethod  PaymentMethod `gorm:"not null" json:"paymentMethod"`
	ReceiptURL     string        `json:"receiptUrl,omitempty"`
	TotalAmount    float64       `gorm:"not null" json:"totalAmount"`
	CouponCode     string        `json:"couponCode,omitempty"`
	DiscountAmount float64       `json:"discountAmount"`
	CreatedAt      time.Time     `json:"createdAt"`
	Items          []OrderItem   `gorm:"foreignKey:OrderID" json:"items"`
}

// OrderItem is a single line of an order. Items are created alongside the
// order and are immutable afterwards. ProductName is denormalized at
// placement time and includes the variant label when one was selected.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey;autoIncrement" json:"-"`
	OrderID     string  `gorm:"index;not null" json:"orderId"`
	ProductID   string  `gorm:"not null" json:"productId"`
	VariantID   string  `json:"variantId,omitempty"`
	ProductName string  `gorm:"not null" json:"productName"`
	UnitPrice   float64 `gorm:"not null" json:"unitPrice"`
	Quantity    int     `gorm:"not null" json:"quantity"`
	Subtotal    float64 `gorm:"not null" json:"subtotal"`
}
