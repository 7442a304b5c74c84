// Package repository defines the persistence boundary of the service and
// provides two implementations: an in-memory store used for tests and
// database-less runs, and a GORM/Postgres store for real deployments.
package repository

import (
	"context"
	"errors"

	"github.com/markethall/storefront-api/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// CouponRepository reads coupon rules and consumes usage slots. Consume must
// be safe against concurrent checkouts reusing the same code: it fails with
// ErrCouponExhausted instead of overrunning the limit.
type CouponRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListCodes(ctx context.Context) ([]string, error)
	Consume(ctx context.Context, code string) error
}

// OrderRepository persists orders. Place writes the order, its items, and the
// coupon usage (when a code is present) as one atomic unit: a failure on any
// write leaves no partial order behind.
type OrderRepository interface {
	Place(ctx context.Context, order *models.Order, couponCode string) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// Store bundles the repositories behind one constructor so main can swap the
// whole persistence layer at once.
type Store interface {
	Products() ProductRepository
	Coupons() CouponRepository
	Orders() OrderRepository
}
