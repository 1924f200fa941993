package order

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/fitness-backend/internal/pkg/apperror"
	"github.com/your-org/fitness-backend/internal/pkg/txn"
)

// ListFilter narrows order listings
type ListFilter struct {
	UserID *uint
	Status OrderStatus
	Page   int
	Limit  int
}

func (f ListFilter) offset() int {
	return (f.Page - 1) * f.Limit
}

// Normalize applies paging defaults
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	return f
}

// Repository persists orders
type Repository interface {
	// Create inserts the order together with its items and status history
	Create(ctx context.Context, o *Order) error
	// Save updates the order row only; items are immutable
	Save(ctx context.Context, o *Order) error
	AddHistory(ctx context.Context, h *OrderStatusHistory) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	// LockByID loads the order with items for update; callers must be inside a transaction
	LockByID(ctx context.Context, id uint) (*Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)
	// List returns orders newest first with the total count for the filter
	List(ctx context.Context, filter ListFilter) ([]Order, int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, o *Order) error {
	if err := txn.DB(ctx, r.db).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *gormRepository) Save(ctx context.Context, o *Order) error {
	if err := txn.DB(ctx, r.db).Omit(clause.Associations).Save(o).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

func (r *gormRepository) AddHistory(ctx context.Context, h *OrderStatusHistory) error {
	if err := txn.DB(ctx, r.db).Create(h).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *gormRepository) LockByID(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := txn.DB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("order not found: %v", id)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	// loaded separately so the row lock does not spread to order_items
	if err := txn.DB(ctx, r.db).Where("order_id = ?", id).Order("id ASC").Find(&o.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

func (r *gormRepository) findOne(ctx context.Context, query string, arg any) (*Order, error) {
	var o Order
	err := txn.DB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where(query, arg).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFoundf("order not found: %v", arg)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

func (r *gormRepository) List(ctx context.Context, filter ListFilter) ([]Order, int64, error) {
	filter = filter.Normalize()

	query := txn.DB(ctx, r.db).Model(&Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Offset(filter.offset()).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}
