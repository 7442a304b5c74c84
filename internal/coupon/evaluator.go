// Package coupon validates user-supplied discount codes against the coupon
// rules and computes the discount they grant.
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/markethall/storefront-api/internal/models"
	"github.com/markethall/storefront-api/internal/pricing"
	"github.com/markethall/storefront-api/internal/repository"
)

var (
	ErrInvalidCoupon   = errors.New("coupon code is not valid")
	ErrCouponExpired   = errors.New("coupon is outside its validity window")
	ErrMinOrderNotMet  = errors.New("cart subtotal is below the coupon minimum")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// bloomFalsePositiveRate trades one spurious repository lookup per ~thousand
// misses for a filter small enough to rebuild on every warm.
const bloomFalsePositiveRate = 0.001

// filterTTL bounds how long the negative-lookup filter is trusted. Coupons
// are created and edited by administrators while the service runs; a code
// added after the last warm is invisible to the filter, so once the filter is
// older than this every miss falls through to the repository instead of being
// rejected outright.
const filterTTL = 5 * time.Minute

// Repository is the slice of the persistence layer the evaluator needs.
type Repository interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCodes(ctx context.Context) ([]string, error)
}

// Result is a successful evaluation: the matched coupon and the discount it
// grants against the evaluated subtotal. RawDiscount keeps the nominal amount
// before the subtotal clamp for display.
type Result struct {
	Coupon      *models.Coupon `json:"coupon"`
	Discount    float64        `json:"discount"`
	RawDiscount float64        `json:"rawDiscount"`
}

// Evaluator validates coupon codes and computes discounts. A bloom filter
// over the known codes answers most invalid-code lookups without touching the
// repository.
type Evaluator struct {
	repo   Repository
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	warmed time.Time
	now    func() time.Time
}

// NewEvaluator creates an evaluator over the given repository.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{
		repo: repo,
		now:  time.Now,
	}
}

// Warm rebuilds the negative-lookup filter from the repository's current
// codes. Until the first successful warm every lookup goes to the repository.
func (e *Evaluator) Warm(ctx context.Context) error {
	codes, err := e.repo.ListCodes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list coupon codes: %w", err)
	}

	n := uint(len(codes))
	if n == 0 {
		n = 1
	}
	filter := bloom.NewWithEstimates(n, bloomFalsePositiveRate)
	for _, code := range codes {
		filter.AddString(strings.ToUpper(code))
	}

	e.mu.Lock()
	e.filter = filter
	e.warmed = e.now()
	e.mu.Unlock()
	return nil
}

// WarmPeriodically re-warms the filter every interval until ctx is done, so
// coupons created after startup become visible to the pre-filter. Warm
// failures are reported through onError and the previous filter stays in
// place; Evaluate stops trusting it once it exceeds filterTTL.
func (e *Evaluator) WarmPeriodically(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.Warm(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

// Normalize trims surrounding whitespace and upper-cases a code; coupon codes
// are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Evaluate validates a code against the current subtotal and returns the
// discount it grants. The checks run in order: existence and active flag,
// validity window, minimum order amount, usage limit. No usage is consumed
// here; consumption happens inside the order placement transaction.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal float64) (*Result, error) {
	code = Normalize(code)
	if code == "" {
		return nil, ErrInvalidCoupon
	}

	e.mu.RLock()
	filter := e.filter
	fresh := e.now().Sub(e.warmed) < filterTTL
	e.mu.RUnlock()
	if filter != nil && fresh && !filter.TestString(code) {
		return nil, ErrInvalidCoupon
	}

	c, err := e.repo.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrCouponNotFound) {
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if !c.IsActive {
		return nil, ErrInvalidCoupon
	}
	if !c.InWindow(e.now()) {
		return nil, ErrCouponExpired
	}
	if c.MinOrderAmount > 0 && subtotal < c.MinOrderAmount {
		return nil, ErrMinOrderNotMet
	}
	if c.Exhausted() {
		return nil, ErrCouponExhausted
	}

	discount, raw := pricing.Discount(c, subtotal)
	return &Result{
		Coupon:      c,
		Discount:    discount,
		RawDiscount: raw,
	}, nil
}

// Stats returns filter statistics for the admin endpoint.
func (e *Evaluator) Stats() map[string]interface{} {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := make(map[string]interface{})
	if e.filter == nil {
		stats["warmed"] = false
		return stats
	}
	stats["warmed"] = true
	stats["warmed_at"] = e.warmed.UTC()
	stats["stale"] = e.now().Sub(e.warmed) >= filterTTL
	stats["approx_codes"] = e.filter.ApproximatedSize()
	return stats
}
