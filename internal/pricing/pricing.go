// Package pricing owns the money arithmetic of the checkout flow. Amounts
// cross package boundaries as float64 (matching the catalog and storage
// layers) but every computation runs through decimal and is rounded to cents,
// so repeated percentage discounts cannot accumulate float drift.
package pricing

import (
	"github.com/markethall/storefront-api/internal/models"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Subtotal returns the sum of unitPrice x quantity over the given lines,
// rounded to cents.
func Subtotal(lines []models.CartLine) float64 {
	total := decimal.Zero
	for _, line := range lines {
		lineTotal := decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
	}
	return round(total)
}

// LineSubtotal returns unitPrice x quantity for a single line, rounded to
// cents.
func LineSubtotal(unitPrice float64, quantity int) float64 {
	return round(decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity))))
}

// Discount computes the discount a coupon grants against a subtotal.
// Percentage coupons take subtotal x value / 100, capped at MaxDiscount when
// one is set. Fixed coupons grant exactly their value.
//
// The returned amount is additionally clamped so it never exceeds the
// subtotal; raw carries the unclamped figure for display. An unknown discount
// type yields zero.
func Discount(coupon *models.Coupon, subtotal float64) (amount, raw float64) {
	sub := decimal.NewFromFloat(subtotal)
	var d decimal.Decimal

	switch coupon.DiscountType {
	case models.DiscountPercentage:
		d = sub.Mul(decimal.NewFromFloat(coupon.DiscountValue)).Div(oneHundred)
		if coupon.MaxDiscount > 0 {
			if cap := decimal.NewFromFloat(coupon.MaxDiscount); d.GreaterThan(cap) {
				d = cap
			}
		}
	case models.DiscountFixed:
		d = decimal.NewFromFloat(coupon.DiscountValue)
	default:
		return 0, 0
	}

	raw = round(d)
	if d.GreaterThan(sub) {
		d = sub
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return round(d), raw
}

// Total returns subtotal minus discount, floored at zero.
func Total(subtotal, discount float64) float64 {
	t := decimal.NewFromFloat(subtotal).Sub(decimal.NewFromFloat(discount))
	if t.IsNegative() {
		t = decimal.Zero
	}
	return round(t)
}

func round(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
