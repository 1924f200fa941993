package product_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/your-org/fitness-backend/internal/domain/product"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
)

func newMockCatalog(t *testing.T) (product.Catalog, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return product.NewCatalog(db), mock
}

func TestDecrementInventoryIsConditional(t *testing.T) {
	catalog, mock := newMockCatalog(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "inventory_count"=inventory_count - .* WHERE id = .* AND inventory_count >= `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := catalog.DecrementInventory(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementInventoryReportsShortStock(t *testing.T) {
	catalog, mock := newMockCatalog(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "inventory_count"=inventory_count - `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := catalog.DecrementInventory(context.Background(), 7, 30)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreInventory(t *testing.T) {
	catalog, mock := newMockCatalog(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "inventory_count"=inventory_count \+ `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, catalog.RestoreInventory(context.Background(), 7, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindProductByIDNotFound(t *testing.T) {
	catalog, mock := newMockCatalog(t)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"."id" = `).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := catalog.FindProductByID(context.Background(), 99)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
