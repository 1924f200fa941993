package inmemory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
)

type userRepo struct{ s *Store }

func (r *userRepo) FindUserByID(ctx context.Context, id uint) (*user.User, error) {
	var out *user.User
	err := r.s.do(ctx, func() error {
		u, ok := r.s.users[id]
		if !ok {
			return apperror.NotFound("User", id)
		}
		out = &u
		return nil
	})
	return out, err
}

type catalog struct{ s *Store }

func (c *catalog) FindProductByID(ctx context.Context, id uint) (*product.Product, error) {
	var out *product.Product
	err := c.s.do(ctx, func() error {
		p, ok := c.s.products[id]
		if !ok {
			return apperror.NotFound("Product", id)
		}
		out = &p
		return nil
	})
	return out, err
}

func (c *catalog) DecrementInventory(ctx context.Context, id uint, quantity int) (bool, error) {
	var decremented bool
	err := c.s.do(ctx, func() error {
		p, ok := c.s.products[id]
		if !ok || c.s.rejectDecrement[id] || p.InventoryCount < quantity {
			return nil
		}
		p.InventoryCount -= quantity
		p.UpdatedAt = time.Now().UTC()
		c.s.products[id] = p
		decremented = true
		return nil
	})
	return decremented, err
}

func (c *catalog) RestoreInventory(ctx context.Context, id uint, quantity int) error {
	return c.s.do(ctx, func() error {
		p, ok := c.s.products[id]
		if !ok {
			return nil
		}
		p.InventoryCount += quantity
		p.UpdatedAt = time.Now().UTC()
		c.s.products[id] = p
		return nil
	})
}

func (c *catalog) IsActive(ctx context.Context, id uint) (bool, error) {
	var active bool
	err := c.s.do(ctx, func() error {
		active = c.s.products[id].IsActive
		return nil
	})
	return active, err
}

type cartRepo struct{ s *Store }

func (r *cartRepo) FindByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	var out *cart.Cart
	err := r.s.do(ctx, func() error {
		c, ok := r.s.cartByUser(userID)
		if !ok {
			return cart.ErrCartNotFound
		}
		c.Items = r.s.itemsOf(c.ID)
		out = &c
		return nil
	})
	return out, err
}

func (r *cartRepo) LockByUserID(ctx context.Context, userID uint) (*cart.Cart, error) {
	var out *cart.Cart
	err := r.s.do(ctx, func() error {
		c, ok := r.s.cartByUser(userID)
		if !ok {
			return cart.ErrCartNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *cartRepo) Create(ctx context.Context, c *cart.Cart) error {
	return r.s.do(ctx, func() error {
		if existing, ok := r.s.cartByUser(c.UserID); ok {
			c.ID = existing.ID
			return nil
		}
		c.ID = r.s.id()
		now := time.Now().UTC()
		c.CreatedAt, c.UpdatedAt = now, now
		stored := *c
		stored.Items = nil
		r.s.carts[c.ID] = stored
		return nil
	})
}

func (r *cartRepo) Touch(ctx context.Context, cartID uint) error {
	return r.s.do(ctx, func() error {
		c, ok := r.s.carts[cartID]
		if !ok {
			return cart.ErrCartNotFound
		}
		c.UpdatedAt = time.Now().UTC()
		r.s.carts[cartID] = c
		return nil
	})
}

func (r *cartRepo) FindItem(ctx context.Context, cartID, productID uint) (*cart.CartItem, error) {
	var out *cart.CartItem
	err := r.s.do(ctx, func() error {
		for _, item := range r.s.cartItems {
			if item.CartID == cartID && item.ProductID == productID {
				item := item
				out = &item
				return nil
			}
		}
		return cart.ErrItemNotFound
	})
	return out, err
}

func (r *cartRepo) SaveItem(ctx context.Context, item *cart.CartItem) error {
	return r.s.do(ctx, func() error {
		now := time.Now().UTC()
		if item.ID == 0 {
			for _, existing := range r.s.cartItems {
				if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
					return fmt.Errorf("duplicate cart item for product %d", item.ProductID)
				}
			}
			item.ID = r.s.id()
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		r.s.cartItems[item.ID] = *item
		return nil
	})
}

func (r *cartRepo) DeleteItem(ctx context.Context, cartID, productID uint) error {
	return r.s.do(ctx, func() error {
		for id, item := range r.s.cartItems {
			if item.CartID == cartID && item.ProductID == productID {
				delete(r.s.cartItems, id)
			}
		}
		return nil
	})
}

func (r *cartRepo) DeleteItemsByCartID(ctx context.Context, cartID uint) error {
	return r.s.do(ctx, func() error {
		for id, item := range r.s.cartItems {
			if item.CartID == cartID {
				delete(r.s.cartItems, id)
			}
		}
		return nil
	})
}

type orderRepo struct{ s *Store }

func (r *orderRepo) Create(ctx context.Context, o *order.Order) error {
	return r.s.do(ctx, func() error {
		for _, existing := range r.s.orders {
			if existing.OrderNumber == o.OrderNumber {
				return fmt.Errorf("duplicate order number %s", o.OrderNumber)
			}
		}

		now := time.Now().UTC()
		o.ID = r.s.id()
		o.CreatedAt, o.UpdatedAt = now, now
		for i := range o.Items {
			o.Items[i].ID = r.s.id()
			o.Items[i].OrderID = o.ID
			o.Items[i].CreatedAt = now
			r.s.orderItems[o.Items[i].ID] = o.Items[i]
		}
		for i := range o.StatusHistory {
			o.StatusHistory[i].ID = r.s.id()
			o.StatusHistory[i].OrderID = o.ID
			r.s.history[o.StatusHistory[i].ID] = o.StatusHistory[i]
		}
		r.s.orders[o.ID] = bare(o)
		return nil
	})
}

func (r *orderRepo) Save(ctx context.Context, o *order.Order) error {
	return r.s.do(ctx, func() error {
		if _, ok := r.s.orders[o.ID]; !ok {
			return apperror.NotFoundf("order not found: %d", o.ID)
		}
		r.s.orders[o.ID] = bare(o)
		return nil
	})
}

func (r *orderRepo) AddHistory(ctx context.Context, h *order.OrderStatusHistory) error {
	return r.s.do(ctx, func() error {
		h.ID = r.s.id()
		if h.CreatedAt.IsZero() {
			h.CreatedAt = time.Now().UTC()
		}
		r.s.history[h.ID] = *h
		return nil
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	var out *order.Order
	err := r.s.do(ctx, func() error {
		o, ok := r.s.orders[id]
		if !ok {
			return apperror.NotFoundf("order not found: %v", id)
		}
		out = r.s.hydrate(o, true)
		return nil
	})
	return out, err
}

func (r *orderRepo) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	var out *order.Order
	err := r.s.do(ctx, func() error {
		o, ok := r.s.orders[id]
		if !ok {
			return apperror.NotFoundf("order not found: %v", id)
		}
		out = r.s.hydrate(o, false)
		return nil
	})
	return out, err
}

func (r *orderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error) {
	var out *order.Order
	err := r.s.do(ctx, func() error {
		for _, o := range r.s.orders {
			if o.OrderNumber == orderNumber {
				out = r.s.hydrate(o, true)
				return nil
			}
		}
		return apperror.NotFoundf("order not found: %v", orderNumber)
	})
	return out, err
}

func (r *orderRepo) List(ctx context.Context, filter order.ListFilter) ([]order.Order, int64, error) {
	filter = filter.Normalize()

	var (
		page  []order.Order
		total int64
	)
	err := r.s.do(ctx, func() error {
		var matched []order.Order
		for _, o := range r.s.orders {
			if filter.UserID != nil && o.UserID != *filter.UserID {
				continue
			}
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			matched = append(matched, o)
		}
		sort.Slice(matched, func(i, j int) bool {
			if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].CreatedAt.After(matched[j].CreatedAt)
			}
			return matched[i].ID > matched[j].ID
		})

		total = int64(len(matched))
		start := (filter.Page - 1) * filter.Limit
		if start >= len(matched) {
			page = []order.Order{}
			return nil
		}
		end := min(start+filter.Limit, len(matched))
		for _, o := range matched[start:end] {
			page = append(page, *r.s.hydrate(o, false))
		}
		return nil
	})
	return page, total, err
}

func (s *Store) cartByUser(userID uint) (cart.Cart, bool) {
	for _, c := range s.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return cart.Cart{}, false
}

func (s *Store) itemsOf(cartID uint) []cart.CartItem {
	items := []cart.CartItem{}
	for _, item := range s.cartItems {
		if item.CartID == cartID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (s *Store) hydrate(o order.Order, withHistory bool) *order.Order {
	o.Items = []order.OrderItem{}
	for _, item := range s.orderItems {
		if item.OrderID == o.ID {
			o.Items = append(o.Items, item)
		}
	}
	sort.Slice(o.Items, func(i, j int) bool { return o.Items[i].ID < o.Items[j].ID })

	o.StatusHistory = nil
	if withHistory {
		for _, h := range s.history {
			if h.OrderID == o.ID {
				o.StatusHistory = append(o.StatusHistory, h)
			}
		}
		sort.Slice(o.StatusHistory, func(i, j int) bool { return o.StatusHistory[i].ID < o.StatusHistory[j].ID })
	}
	return &o
}

// bare strips associations so only the order row is stored
func bare(o *order.Order) order.Order {
	stored := *o
	stored.Items = nil
	stored.StatusHistory = nil
	return stored
}
