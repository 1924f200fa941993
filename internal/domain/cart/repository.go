package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// ErrCartNotFound is returned by repositories when a user has no cart row
var ErrCartNotFound = errors.New("cart not found")

// ErrItemNotFound is returned by repositories when a cart has no line for a product
var ErrItemNotFound = errors.New("cart item not found")

// Repository persists carts and their items
type Repository interface {
	// FindByUserID loads the cart with items ordered by insertion
	FindByUserID(ctx context.Context, userID uint) (*Cart, error)
	// LockByUserID loads the cart row for update; callers must be inside a transaction
	LockByUserID(ctx context.Context, userID uint) (*Cart, error)
	Create(ctx context.Context, c *Cart) error
	Touch(ctx context.Context, cartID uint) error
	FindItem(ctx context.Context, cartID, productID uint) (*CartItem, error)
	SaveItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uint) error
	DeleteItemsByCartID(ctx context.Context, cartID uint) error
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindByUserID(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := txn.DB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &c, nil
}

func (r *gormRepository) LockByUserID(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := txn.DB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to lock cart: %w", err)
	}
	return &c, nil
}

func (r *gormRepository) Create(ctx context.Context, c *Cart) error {
	// a concurrent first add may already have created the row
	err := txn.DB(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(c).Error
	if err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *gormRepository) Touch(ctx context.Context, cartID uint) error {
	err := txn.DB(ctx, r.db).Model(&Cart{ID: cartID}).UpdateColumn("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

func (r *gormRepository) FindItem(ctx context.Context, cartID, productID uint) (*CartItem, error) {
	var item CartItem
	err := txn.DB(ctx, r.db).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	return &item, nil
}

func (r *gormRepository) SaveItem(ctx context.Context, item *CartItem) error {
	if err := txn.DB(ctx, r.db).Save(item).Error; err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (r *gormRepository) DeleteItem(ctx context.Context, cartID, productID uint) error {
	err := txn.DB(ctx, r.db).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&CartItem{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (r *gormRepository) DeleteItemsByCartID(ctx context.Context, cartID uint) error {
	if err := txn.DB(ctx, r.db).Where("cart_id = ?", cartID).Delete(&CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
