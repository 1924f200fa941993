// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/domain/pricing"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// Service handles cart business logic
type Service struct {
	carts   Repository
	catalog product.Catalog
	users   user.Repository
	tx      txn.Transactor
	log     logrus.FieldLogger
}

// NewService creates a new cart service
func NewService(carts Repository, catalog product.Catalog, users user.Repository, tx txn.Transactor, log logrus.FieldLogger) *Service {
	return &Service{
		carts:   carts,
		catalog: catalog,
		users:   users,
		tx:      tx,
		log:     log.WithField("component", "cart"),
	}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateItemRequest represents update cart item request
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use
func (s *Service) GetOrCreateCart(ctx context.Context, userID uint) (*View, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := s.lockOrCreate(ctx, userID)
			return err
		})
		if err != nil {
			return nil, err
		}
		c, err = s.carts.FindByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem puts quantity units of a product in the cart, merging with an
// existing line for the same product.
func (s *Service) AddItem(ctx context.Context, userID, productID uint, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, apperror.Validation("quantity must be at least 1")
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.lockOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		p, err := s.catalog.FindProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.IsActive {
			return apperror.InvalidState("product is not available: %s", p.Name)
		}

		item, err := s.carts.FindItem(ctx, c.ID, productID)
		switch {
		case errors.Is(err, ErrItemNotFound):
			item = &CartItem{CartID: c.ID, ProductID: productID}
		case err != nil:
			return err
		}

		newQuantity := item.Quantity + quantity
		if !p.HasStock(newQuantity) {
			return apperror.InsufficientInventory(p.Name, p.InventoryCount)
		}

		item.Quantity = newQuantity
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return err
		}
		return s.carts.Touch(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	}).Debug("Item added to cart")

	return s.GetOrCreateCart(ctx, userID)
}

// UpdateItemQuantity sets the absolute quantity of a line; zero removes it
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, productID uint, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, apperror.Validation("quantity cannot be negative")
	}
	if quantity == 0 {
		if err := s.RemoveItem(ctx, userID, productID); err != nil {
			return nil, err
		}
		return s.GetOrCreateCart(ctx, userID)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.LockByUserID(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return apperror.NotFoundf("cart not found for user: %d", userID)
		}
		if err != nil {
			return err
		}

		item, err := s.carts.FindItem(ctx, c.ID, productID)
		if errors.Is(err, ErrItemNotFound) {
			return apperror.NotFoundf("item not found in cart: %d", productID)
		}
		if err != nil {
			return err
		}

		p, err := s.catalog.FindProductByID(ctx, productID)
		if err != nil {
			return err
		}
		if !p.HasStock(quantity) {
			return apperror.InsufficientInventory(p.Name, p.InventoryCount)
		}

		item.Quantity = quantity
		if err := s.carts.SaveItem(ctx, item); err != nil {
			return err
		}
		return s.carts.Touch(ctx, c.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrCreateCart(ctx, userID)
}

// RemoveItem drops a product line. Removing an absent line is not an error.
func (s *Service) RemoveItem(ctx context.Context, userID, productID uint) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.LockByUserID(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.carts.DeleteItem(ctx, c.ID, productID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, c.ID)
	})
}

// Clear removes every item but keeps the cart itself
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.LockByUserID(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.carts.DeleteItemsByCartID(ctx, c.ID); err != nil {
			return err
		}
		return s.carts.Touch(ctx, c.ID)
	})
	if err != nil {
		return err
	}

	s.log.WithField("user_id", userID).Debug("Cart cleared")
	return nil
}

// RemoveOrdered takes checked-out quantities off the cart. Lines added or
// raised while the order was being placed keep whatever exceeds the order.
func (s *Service) RemoveOrdered(ctx context.Context, userID uint, ordered map[uint]int) error {
	return s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.carts.LockByUserID(ctx, userID)
		if errors.Is(err, ErrCartNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for productID, quantity := range ordered {
			item, err := s.carts.FindItem(ctx, c.ID, productID)
			if errors.Is(err, ErrItemNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if item.Quantity > quantity {
				item.Quantity -= quantity
				if err := s.carts.SaveItem(ctx, item); err != nil {
					return err
				}
				continue
			}
			if err := s.carts.DeleteItem(ctx, c.ID, productID); err != nil {
				return err
			}
		}
		return s.carts.Touch(ctx, c.ID)
	})
}

// ItemCount sums the quantities in the user's cart without creating one
func (s *Service) ItemCount(ctx context.Context, userID uint) (int, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.TotalQuantity(), nil
}

// Validate reports whether every item can be bought right now. A missing or
// empty cart is valid.
func (s *Service) Validate(ctx context.Context, userID uint) (bool, error) {
	issues, err := s.ValidationIssues(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(issues) == 0, nil
}

// ValidationIssues lists the items that would make Validate fail
func (s *Service) ValidationIssues(ctx context.Context, userID uint) ([]Issue, error) {
	c, err := s.carts.FindByUserID(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var issues []Issue
	for _, item := range c.Items {
		p, err := s.catalog.FindProductByID(ctx, item.ProductID)
		if errors.Is(err, apperror.ErrNotFound) {
			issues = append(issues, Issue{ProductID: item.ProductID, Reason: "product no longer exists"})
			continue
		}
		if err != nil {
			return nil, err
		}

		switch {
		case !p.IsActive:
			issues = append(issues, Issue{ProductID: item.ProductID, Reason: fmt.Sprintf("%s is no longer available", p.Name)})
		case !p.HasStock(item.Quantity):
			issues = append(issues, Issue{
				ProductID: item.ProductID,
				Reason:    fmt.Sprintf("only %d of %s left in stock", p.InventoryCount, p.Name),
			})
		}
	}
	return issues, nil
}

// lockOrCreate returns the locked cart for userID, creating it if needed.
// Must run inside a transaction.
func (s *Service) lockOrCreate(ctx context.Context, userID uint) (*Cart, error) {
	if _, err := s.users.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	c, err := s.carts.LockByUserID(ctx, userID)
	if !errors.Is(err, ErrCartNotFound) {
		return c, err
	}

	if err := s.carts.Create(ctx, &Cart{UserID: userID}); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", userID).Info("Cart created")

	return s.carts.LockByUserID(ctx, userID)
}

func (s *Service) view(ctx context.Context, c *Cart) (*View, error) {
	v := &View{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      make([]ItemView, 0, len(c.Items)),
		TotalItems: c.TotalQuantity(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}

	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		iv := ItemView{ID: item.ID, ProductID: item.ProductID, Quantity: item.Quantity}

		p, err := s.catalog.FindProductByID(ctx, item.ProductID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		if p != nil {
			line := pricing.Line{Price: p.Price, DiscountPrice: p.DiscountPtr(), Quantity: item.Quantity}
			lines = append(lines, line)

			iv.ProductName = p.Name
			iv.ImageURL = p.MainImageURL()
			iv.Price = p.Price
			iv.DiscountPrice = p.DiscountPtr()
			iv.UnitPrice = pricing.UnitPrice(p.Price, p.DiscountPtr())
			iv.TotalPrice = pricing.LineTotal(line)
			iv.Available = p.IsActive && p.HasStock(item.Quantity)
			iv.InStock = p.InventoryCount
		}
		v.Items = append(v.Items, iv)
	}
	v.Subtotal = pricing.Subtotal(lines)

	return v, nil
}
