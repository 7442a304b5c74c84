package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethall/storefront-api/internal/models"
)

func TestInMemoryProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryProductRepository()

	t.Run("seeded catalog", func(t *testing.T) {
		products, err := repo.GetAll(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, products)
	})

	t.Run("lookup by id", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "4")
		require.NoError(t, err)
		assert.Equal(t, "Logo Tee", p.Name)
		assert.Len(t, p.Variants, 3)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "999")
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestInMemoryCouponRepository_Consume(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryCouponRepository()
	repo.Seed([]models.Coupon{
		{Code: "limited", DiscountType: models.DiscountFixed, DiscountValue: 5, UsageLimit: 2, IsActive: true},
		{Code: "OPEN", DiscountType: models.DiscountFixed, DiscountValue: 5, IsActive: true},
	})

	t.Run("codes are upper-cased on seed", func(t *testing.T) {
		c, err := repo.GetByCode(ctx, "LIMITED")
		require.NoError(t, err)
		assert.Equal(t, "LIMITED", c.Code)
	})

	t.Run("consume up to the limit", func(t *testing.T) {
		require.NoError(t, repo.Consume(ctx, "limited"))
		require.NoError(t, repo.Consume(ctx, "LIMITED"))

		err := repo.Consume(ctx, "LIMITED")
		assert.ErrorIs(t, err, ErrCouponExhausted)

		c, err := repo.GetByCode(ctx, "LIMITED")
		require.NoError(t, err)
		assert.Equal(t, 2, c.UsageCount)
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			require.NoError(t, repo.Consume(ctx, "OPEN"))
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		err := repo.Consume(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("lookups return copies", func(t *testing.T) {
		c, err := repo.GetByCode(ctx, "OPEN")
		require.NoError(t, err)
		c.UsageCount = 9999

		fresh, err := repo.GetByCode(ctx, "OPEN")
		require.NoError(t, err)
		assert.Equal(t, 10, fresh.UsageCount)
	})
}

func TestInMemoryCouponRepository_ListCodes(t *testing.T) {
	repo := NewInMemoryCouponRepository()
	repo.Seed([]models.Coupon{
		{Code: "A1", IsActive: true},
		{Code: "B2", IsActive: true},
	})

	codes, err := repo.ListCodes(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "B2"}, codes)
}

func TestInMemoryOrderRepository_Place(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *MemoryStore {
		t.Helper()
		s := NewMemoryStore()
		s.Coupons().(*InMemoryCouponRepository).Seed([]models.Coupon{
			{Code: "ONCE", DiscountType: models.DiscountFixed, DiscountValue: 5, UsageLimit: 1, IsActive: true},
		})
		return s
	}

	order := func(id string) *models.Order {
		return &models.Order{
			ID:            id,
			OrderNumber:   "ORD-20250114-" + id,
			CustomerName:  "Ada Lovelace",
			Status:        models.StatusPending,
			PaymentMethod: models.PaymentCOD,
			TotalAmount:   100,
			Items: []models.OrderItem{
				{ProductID: "1", ProductName: "Stoneware Mug", UnitPrice: 50, Quantity: 2, Subtotal: 100},
			},
		}
	}

	t.Run("stores order with items", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Orders().Place(ctx, order("o1"), ""))

		stored, err := s.Orders().GetByID(ctx, "o1")
		require.NoError(t, err)
		assert.Len(t, stored.Items, 1)
		assert.Equal(t, "Stoneware Mug", stored.Items[0].ProductName)
	})

	t.Run("consumes the coupon", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Orders().Place(ctx, order("o1"), "ONCE"))

		c, err := s.Coupons().GetByCode(ctx, "ONCE")
		require.NoError(t, err)
		assert.Equal(t, 1, c.UsageCount)
	})

	t.Run("exhausted coupon fails placement before any write", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Orders().Place(ctx, order("o1"), "ONCE"))

		err := s.Orders().Place(ctx, order("o2"), "ONCE")
		assert.ErrorIs(t, err, ErrCouponExhausted)

		_, err = s.Orders().GetByID(ctx, "o2")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("stored order is detached from the caller's copy", func(t *testing.T) {
		s := newStore(t)
		o := order("o1")
		require.NoError(t, s.Orders().Place(ctx, o, ""))
		o.Items[0].Quantity = 99

		stored, err := s.Orders().GetByID(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, 2, stored.Items[0].Quantity)
	})
}

func TestInMemoryOrderRepository_ListAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryOrderRepository()

	for _, id := range []string{"o1", "o2", "o3"} {
		require.NoError(t, repo.Place(ctx, &models.Order{ID: id, Status: models.StatusPending}, ""))
	}
	require.NoError(t, repo.UpdateStatus(ctx, "o2", models.StatusApproved))

	t.Run("list all", func(t *testing.T) {
		orders, err := repo.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, orders, 3)
	})

	t.Run("filter by status", func(t *testing.T) {
		pending, err := repo.List(ctx, models.StatusPending)
		require.NoError(t, err)
		assert.Len(t, pending, 2)

		approved, err := repo.List(ctx, models.StatusApproved)
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, "o2", approved[0].ID)
	})

	t.Run("update unknown order", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "missing", models.StatusApproved)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
