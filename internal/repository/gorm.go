package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/markethall/storefront-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormStore implements Store on Postgres via GORM.
type GormStore struct {
	db       *gorm.DB
	products *gormProductRepository
	coupons  *gormCouponRepository
	orders   *gormOrderRepository
}

// NewGormStore opens a Postgres connection and migrates the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Coupon{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &GormStore{
		db:       db,
		products: &gormProductRepository{db: db},
		coupons:  &gormCouponRepository{db: db},
		orders:   &gormOrderRepository{db: db},
	}, nil
}

func (s *GormStore) Products() ProductRepository { return s.products }
func (s *GormStore) Coupons() CouponRepository   { return s.coupons }
func (s *GormStore) Orders() OrderRepository     { return s.orders }

type gormProductRepository struct {
	db *gorm.DB
}

func (r *gormProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Variants").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Variants").First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

type gormCouponRepository struct {
	db *gorm.DB
}

func (r *gormCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, "code = ?", strings.ToUpper(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load coupon: %w", err)
	}
	return &coupon, nil
}

func (r *gormCouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	var codes []string
	if err := r.db.WithContext(ctx).Model(&models.Coupon{}).Pluck("code", &codes).Error; err != nil {
		return nil, fmt.Errorf("failed to list coupon codes: %w", err)
	}
	return codes, nil
}

// Consume increments usage_count with a guarded conditional update so two
// concurrent checkouts cannot overrun the limit.
func (r *gormCouponRepository) Consume(ctx context.Context, code string) error {
	return consumeCoupon(r.db.WithContext(ctx), code)
}

func consumeCoupon(db *gorm.DB, code string) error {
	res := db.Model(&models.Coupon{}).
		Where("code = ?", strings.ToUpper(code)).
		Where("usage_limit = 0 OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to consume coupon: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCouponExhausted
	}
	return nil
}

type gormOrderRepository struct {
	db *gorm.DB
}

// Place writes the order row, then its items, then consumes the coupon, all
// inside one transaction. Any failure rolls the whole placement back.
func (r *gormOrderRepository) Place(ctx context.Context, order *models.Order, couponCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if len(order.Items) > 0 {
			if err := tx.CreateInBatches(&order.Items, len(order.Items)).Error; err != nil {
				return fmt.Errorf("failed to create order items: %w", err)
			}
		}
		if couponCode != "" {
			if err := consumeCoupon(tx, couponCode); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *gormOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

func (r *gormOrderRepository) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (r *gormOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
