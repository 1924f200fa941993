// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/fitness-backend/internal/domain/cart"
	"github.com/your-org/fitness-backend/internal/domain/order"
	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/domain/user"
	"github.com/your-org/fitness-backend/internal/infrastructure/database/seed"
	"github.com/your-org/fitness-backend/internal/pkg/auth"
)

// Migration handles database migrations
type Migration struct {
	db         *gorm.DB
	bcryptCost int
	log        logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, bcryptCost int, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:         db,
		bcryptCost: bcryptCost,
		log:        log.WithField("component", "migration"),
	}
}

// Models lists every table in dependency order
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&product.Product{},
		&product.ProductImage{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("Running database auto-migrations")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for the order queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_categories ON products USING GIN (categories)",
		"CREATE INDEX IF NOT EXISTS idx_product_images_main ON product_images(product_id, is_main)",
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",
	}

	failed := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("Failed to create index")
			failed++
		}
	}

	m.log.WithFields(logrus.Fields{
		"created": len(indexes) - failed,
		"failed":  failed,
	}).Info("Indexes created")
	return nil
}

// SeedInitialData inserts the demo users and catalog
func (m *Migration) SeedInitialData() error {
	m.log.Info("Seeding initial data")

	for _, u := range seed.Users() {
		if err := m.seedUser(u.User, u.Password); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	m.log.Info("Initial data seeded")
	return nil
}

func (m *Migration) seedUser(u user.User, password string) error {
	var existing user.User
	err := m.db.Where("email = ?", u.Email).First(&existing).Error
	if err == nil {
		m.log.WithField("email", u.Email).Debug("User already exists")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password, m.bcryptCost)
	if err != nil {
		return err
	}
	u.Password = hash

	if err := m.db.Create(&u).Error; err != nil {
		return err
	}

	m.log.WithFields(logrus.Fields{
		"email": u.Email,
		"role":  u.Role,
		"id":    u.ID,
	}).Info("Created user")
	return nil
}

func (m *Migration) seedProducts() error {
	var count int64
	if err := m.db.Model(&product.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		m.log.WithField("count", count).Debug("Products already exist")
		return nil
	}

	for _, p := range seed.Products() {
		p := p
		if err := m.db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", p.Name, err)
		}
		m.log.WithField("product", p.Name).Info("Created product")
	}
	return nil
}

// GetTableInfo logs the row count of every public table
func (m *Migration) GetTableInfo() error {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return err
	}

	for _, table := range tables {
		var count int64
		m.db.Table(table).Count(&count)
		m.log.WithFields(logrus.Fields{
			"table": table,
			"rows":  count,
		}).Debug("Table info")
	}
	return nil
}
