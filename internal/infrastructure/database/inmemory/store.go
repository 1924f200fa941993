// Package inmemory keeps every checkout table in process memory. It backs the
// "memory" database driver and the service tests.
package inmemory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
)

type txKey struct{}

// Store is a transactional in-memory database. Transactions are serialised
// and rolled back by restoring a snapshot taken when they start.
type Store struct {
	mu sync.Mutex

	nextID uint

	users      map[uint]user.User
	products   map[uint]product.Product
	carts      map[uint]cart.Cart
	cartItems  map[uint]cart.CartItem
	orders     map[uint]order.Order
	orderItems map[uint]order.OrderItem
	history    map[uint]order.OrderStatusHistory

	rejectDecrement map[uint]bool
}

func NewStore() *Store {
	return &Store{
		users:           map[uint]user.User{},
		products:        map[uint]product.Product{},
		carts:           map[uint]cart.Cart{},
		cartItems:       map[uint]cart.CartItem{},
		orders:          map[uint]order.Order{},
		orderItems:      map[uint]order.OrderItem{},
		history:         map[uint]order.OrderStatusHistory{},
		rejectDecrement: map[uint]bool{},
	}
}

type snapshot struct {
	nextID     uint
	users      map[uint]user.User
	products   map[uint]product.Product
	carts      map[uint]cart.Cart
	cartItems  map[uint]cart.CartItem
	orders     map[uint]order.Order
	orderItems map[uint]order.OrderItem
	history    map[uint]order.OrderStatusHistory
}

// WithinTransaction implements txn.Transactor
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Users returns the user repository view of the store
func (s *Store) Users() user.Repository { return &userRepo{s: s} }

// Catalog returns the product catalog view of the store
func (s *Store) Catalog() product.Catalog { return &catalog{s: s} }

// Carts returns the cart repository view of the store
func (s *Store) Carts() cart.Repository { return &cartRepo{s: s} }

// Orders returns the order repository view of the store
func (s *Store) Orders() order.Repository { return &orderRepo{s: s} }

// AddUser inserts u and returns it with its assigned ID
func (s *Store) AddUser(u user.User) user.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.id()
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return u
}

// AddProduct inserts p and returns it with its assigned ID
func (s *Store) AddProduct(p product.Product) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.id()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	for i := range p.Images {
		p.Images[i].ID = s.id()
		p.Images[i].ProductID = p.ID
	}
	s.products[p.ID] = p
	return p
}

// UpdateProduct replaces the stored product with the same ID
func (s *Store) UpdateProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.UpdatedAt = time.Now().UTC()
	s.products[p.ID] = p
}

// RejectDecrement makes conditional decrements of productID report a lost
// race, as if another checkout had taken the stock first.
func (s *Store) RejectDecrement(productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectDecrement[productID] = true
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do runs fn under the store lock unless ctx already holds it
func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		nextID:     s.nextID,
		users:      maps.Clone(s.users),
		products:   maps.Clone(s.products),
		carts:      maps.Clone(s.carts),
		cartItems:  maps.Clone(s.cartItems),
		orders:     maps.Clone(s.orders),
		orderItems: maps.Clone(s.orderItems),
		history:    maps.Clone(s.history),
	}
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.users = snap.users
	s.products = snap.products
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.orders = snap.orders
	s.orderItems = snap.orderItems
	s.history = snap.history
}
