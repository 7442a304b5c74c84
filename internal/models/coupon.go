package models

import "time"

// Discount types supported by coupons
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is a named discount rule maintained by administrators and read-only
// to the checkout flow. Codes are stored upper-cased; lookups normalize the
// same way.
type Coupon struct {
	Code           string     `gorm:"primaryKey" json:"code"`
	DiscountType   string     `gorm:"not null" json:"discountType"`
	DiscountValue  float64    `gorm:"not null" json:"discountValue"`
	MinOrderAmount float64    `json:"minOrderAmount,omitempty"`
	MaxDiscount    float64    `json:"maxDiscount,omitempty"`
	UsageLimit     int        `json:"usageLimit,omitempty"`
	UsageCount     int        `json:"usageCount"`
	ValidFrom      *time.Time `json:"validFrom,omitempty"`
	ValidUntil     *time.Time `json:"validUntil,omitempty"`
	IsActive       bool       `json:"isActive"`
}

// InWindow reports whether the coupon's validity window covers t. Open-ended
// bounds are treated as unbounded.
func (c *Coupon) InWindow(t time.Time) bool {
	if c.ValidFrom != nil && t.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && t.After(*c.ValidUntil) {
		return false
	}
	return true
}

// Exhausted reports whether the coupon's usage limit has been reached.
// A zero limit means unlimited.
func (c *Coupon) Exhausted() bool {
	return c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit
}
