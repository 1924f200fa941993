package inmemory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
)

func TestWithinTransactionRollsBack(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(product.Product{Name: "Bench", Price: decimal.NewFromInt(120), InventoryCount: 4, IsActive: true})
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := s.Catalog().DecrementInventory(ctx, p.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, s.Orders().Create(ctx, &order.Order{OrderNumber: "ORD-1"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Catalog().FindProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.InventoryCount)

	_, err = s.Orders().FindByOrderNumber(ctx, "ORD-1")
	assert.Error(t, err)
}

func TestNestedTransactionJoinsOuter(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(product.Product{Name: "Rack", Price: decimal.NewFromInt(300), InventoryCount: 2, IsActive: true})
	ctx := context.Background()

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.WithinTransaction(ctx, func(ctx context.Context) error {
			return s.Catalog().RestoreInventory(ctx, p.ID, 1)
		})
	})
	require.NoError(t, err)

	got, err := s.Catalog().FindProductByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.InventoryCount)
}

func TestDecrementInventoryIsConditional(t *testing.T) {
	s := NewStore()
	p := s.AddProduct(product.Product{Name: "Plate", Price: decimal.NewFromInt(20), InventoryCount: 1, IsActive: true})

	ok, err := s.Catalog().DecrementInventory(context.Background(), p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Catalog().DecrementInventory(context.Background(), p.ID, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCartCreateIsIdempotentPerUser(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := &cart.Cart{UserID: 7}
	require.NoError(t, s.Carts().Create(ctx, first))
	second := &cart.Cart{UserID: 7}
	require.NoError(t, s.Carts().Create(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, s.Carts().SaveItem(ctx, &cart.CartItem{CartID: first.ID, ProductID: 1, Quantity: 1}))
	assert.Error(t, s.Carts().SaveItem(ctx, &cart.CartItem{CartID: first.ID, ProductID: 1, Quantity: 2}))
}

func TestSeed(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Seed(bcrypt.MinCost))

	u, err := s.Users().FindUserByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	assert.NoError(t, auth.VerifyPassword("Admin#2024", u.Password))
	assert.NotEmpty(t, s.products)
}
