package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/markethall/storefront-api/internal/models"
)

// MemoryStore implements Store with in-memory maps. It seeds a small catalog
// so the server is usable without a database.
type MemoryStore struct {
	products *InMemoryProductRepository
	coupons  *InMemoryCouponRepository
	orders   *InMemoryOrderRepository
}

// NewMemoryStore creates an in-memory store with seed catalog data.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		products: NewInMemoryProductRepository(),
		coupons:  NewInMemoryCouponRepository(),
		orders:   NewInMemoryOrderRepository(),
	}
	s.orders.BindCoupons(s.coupons)
	return s
}

func (s *MemoryStore) Products() ProductRepository { return s.products }
func (s *MemoryStore) Coupons() CouponRepository   { return s.coupons }
func (s *MemoryStore) Orders() OrderRepository     { return s.orders }

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates a new in-memory product repository with seed data
func NewInMemoryProductRepository() *InMemoryProductRepository {
	products := map[string]models.Product{
		"1": {ID: "1", Name: "Stoneware Mug", BasePrice: 12.99, Category: "Kitchen", MaxQuantity: 10},
		"2": {ID: "2", Name: "Walnut Cutting Board", BasePrice: 34.99, Category: "Kitchen", MaxQuantity: 5},
		"3": {ID: "3", Name: "Linen Apron", BasePrice: 29.99, SalePrice: 24.99, OnSale: true, Category: "Kitchen", MaxQuantity: 5},
		"4": {ID: "4", Name: "Logo Tee", BasePrice: 19.99, Category: "Apparel", MaxQuantity: 10,
			Variants: []models.ProductVariant{
				{ID: "4-s", ProductID: "4", Label: "S"},
				{ID: "4-m", ProductID: "4", Label: "M"},
				{ID: "4-l", ProductID: "4", Label: "L"},
			}},
		"5": {ID: "5", Name: "Canvas Tote", BasePrice: 15.49, Category: "Apparel", MaxQuantity: 10},
		"6": {ID: "6", Name: "Pour-Over Kettle", BasePrice: 49.99, SalePrice: 39.99, OnSale: true, Category: "Coffee", MaxQuantity: 3},
	}

	return &InMemoryProductRepository{products: products}
}

// Seed replaces the repository contents, used by tests.
func (r *InMemoryProductRepository) Seed(products []models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = make(map[string]models.Product, len(products))
	for _, p := range products {
		r.products[p.ID] = p
	}
}

// GetAll returns all products
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// InMemoryCouponRepository implements CouponRepository with in-memory storage.
type InMemoryCouponRepository struct {
	mu      sync.Mutex
	coupons map[string]*models.Coupon
}

// NewInMemoryCouponRepository creates an empty in-memory coupon repository.
func NewInMemoryCouponRepository() *InMemoryCouponRepository {
	return &InMemoryCouponRepository{coupons: make(map[string]*models.Coupon)}
}

// Seed replaces the repository contents, used by tests and main.
func (r *InMemoryCouponRepository) Seed(coupons []models.Coupon) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.coupons = make(map[string]*models.Coupon, len(coupons))
	for i := range coupons {
		c := coupons[i]
		c.Code = strings.ToUpper(c.Code)
		r.coupons[c.Code] = &c
	}
}

// GetByCode returns a copy of the coupon with the given (upper-cased) code.
func (r *InMemoryCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, ErrCouponNotFound
	}
	coupon := *c
	return &coupon, nil
}

// ListCodes returns all coupon codes.
func (r *InMemoryCouponRepository) ListCodes(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	codes := make([]string, 0, len(r.coupons))
	for code := range r.coupons {
		codes = append(codes, code)
	}
	return codes, nil
}

// Consume increments the coupon's usage count, failing once the limit is
// reached. The mutex serializes concurrent checkouts on the same code.
func (r *InMemoryCouponRepository) Consume(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.coupons[strings.ToUpper(code)]
	if !ok {
		return ErrCouponNotFound
	}
	if c.Exhausted() {
		return ErrCouponExhausted
	}
	c.UsageCount++
	return nil
}

// InMemoryOrderRepository implements OrderRepository with in-memory storage.
type InMemoryOrderRepository struct {
	mu      sync.RWMutex
	orders  map[string]*models.Order
	coupons *InMemoryCouponRepository
}

// NewInMemoryOrderRepository creates an empty in-memory order repository.
func NewInMemoryOrderRepository() *InMemoryOrderRepository {
	return &InMemoryOrderRepository{orders: make(map[string]*models.Order)}
}

// BindCoupons wires the coupon repository used for usage consumption during
// Place, mirroring the single transaction of the database store.
func (r *InMemoryOrderRepository) BindCoupons(coupons *InMemoryCouponRepository) {
	r.coupons = coupons
}

// Place stores the order and its items. Coupon usage is consumed first so an
// exhausted coupon fails the placement before anything is recorded.
func (r *InMemoryOrderRepository) Place(ctx context.Context, order *models.Order, couponCode string) error {
	if couponCode != "" && r.coupons != nil {
		if err := r.coupons.Consume(ctx, couponCode); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *order
	stored.Items = make([]models.OrderItem, len(order.Items))
	copy(stored.Items, order.Items)
	r.orders[order.ID] = &stored
	return nil
}

// GetByID returns an order with its items.
func (r *InMemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order := *o
	return &order, nil
}

// List returns orders, optionally filtered by status.
func (r *InMemoryOrderRepository) List(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

// UpdateStatus sets an order's status.
func (r *InMemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	return nil
}
