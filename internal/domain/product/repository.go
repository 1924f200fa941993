package product

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// Catalog is the product store the checkout pipeline depends on
type Catalog interface {
	FindProductByID(ctx context.Context, id uint) (*Product, error)
	// DecrementInventory subtracts quantity only if enough stock remains and
	// reports whether it did.
	DecrementInventory(ctx context.Context, id uint, quantity int) (bool, error)
	RestoreInventory(ctx context.Context, id uint, quantity int) error
	IsActive(ctx context.Context, id uint) (bool, error)
}

type gormCatalog struct {
	db *gorm.DB
}

// NewCatalog returns a Catalog backed by gorm
func NewCatalog(db *gorm.DB) Catalog {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) FindProductByID(ctx context.Context, id uint) (*Product, error) {
	var p Product
	err := txn.DB(ctx, c.db).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product", id)
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (c *gormCatalog) DecrementInventory(ctx context.Context, id uint, quantity int) (bool, error) {
	result := txn.DB(ctx, c.db).
		Model(&Product{}).
		Where("id = ? AND inventory_count >= ?", id, quantity).
		Update("inventory_count", gorm.Expr("inventory_count - ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement inventory: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (c *gormCatalog) RestoreInventory(ctx context.Context, id uint, quantity int) error {
	err := txn.DB(ctx, c.db).
		Model(&Product{}).
		Where("id = ?", id).
		Update("inventory_count", gorm.Expr("inventory_count + ?", quantity)).Error
	if err != nil {
		return fmt.Errorf("failed to restore inventory: %w", err)
	}
	return nil
}

func (c *gormCatalog) IsActive(ctx context.Context, id uint) (bool, error) {
	var active bool
	err := txn.DB(ctx, c.db).
		Model(&Product{}).
		Select("is_active").
		Where("id = ?", id).
		Scan(&active).Error
	if err != nil {
		return false, fmt.Errorf("failed to check product status: %w", err)
	}
	return active, nil
}
