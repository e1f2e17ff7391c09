package ordering

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "warehouse.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&types.Product{},
		&types.Warehouse{},
		&types.Order{},
	))
	return db
}

func TestCreateProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	err := svc.CreateProduct(ctx, &types.Product{ProductID: 3, Name: "WIDGET", UnitPrice: 12.50})
	require.NoError(t, err)

	// Same business id again
	err = svc.CreateProduct(ctx, &types.Product{ProductID: 3, Name: "OTHER", UnitPrice: 5})
	assert.ErrorIs(t, err, ErrDuplicateID)

	// Invalid payloads
	assert.ErrorIs(t, svc.CreateProduct(ctx, &types.Product{ProductID: 0, UnitPrice: 5}), ErrInvalidPayload)
	assert.ErrorIs(t, svc.CreateProduct(ctx, &types.Product{ProductID: 4, UnitPrice: 0}), ErrInvalidPayload)
}

func TestCreateWarehouse(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateWarehouse(ctx, &types.Warehouse{WarehouseID: 1, Name: "CENTRAL"}))
	assert.ErrorIs(t, svc.CreateWarehouse(ctx, &types.Warehouse{WarehouseID: 1}), ErrDuplicateID)
	assert.ErrorIs(t, svc.CreateWarehouse(ctx, &types.Warehouse{WarehouseID: 0}), ErrInvalidPayload)
}

func TestCreateOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateProduct(ctx, &types.Product{ProductID: 3, UnitPrice: 12.50}))

	createdAt := time.Now().Add(-time.Hour)
	order := &types.Order{OrderID: 7, ProductID: 3, Amount: 4, CreatedAt: createdAt}
	require.NoError(t, svc.CreateOrder(ctx, order))

	var stored types.Order
	require.NoError(t, db.Where("order_id = ?", 7).First(&stored).Error)
	assert.Nil(t, stored.FulfilledAt)
	assert.WithinDuration(t, createdAt, stored.CreatedAt, time.Second)

	assert.ErrorIs(t, svc.CreateOrder(ctx, &types.Order{OrderID: 7, ProductID: 3, Amount: 4}), ErrDuplicateID)
	assert.ErrorIs(t, svc.CreateOrder(ctx, &types.Order{OrderID: 8, ProductID: 99, Amount: 4}), ErrUnknownProduct)
	assert.ErrorIs(t, svc.CreateOrder(ctx, &types.Order{OrderID: 9, ProductID: 3, Amount: 0}), ErrInvalidPayload)
}

func TestCreateOrder_DefaultsCreatedAt(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateProduct(ctx, &types.Product{ProductID: 3, UnitPrice: 12.50}))
	require.NoError(t, svc.CreateOrder(ctx, &types.Order{OrderID: 7, ProductID: 3, Amount: 4}))

	var stored types.Order
	require.NoError(t, db.Where("order_id = ?", 7).First(&stored).Error)
	assert.WithinDuration(t, time.Now(), stored.CreatedAt, 5*time.Second)
}

func TestCreateOrder_IgnoresCallerFulfilledAt(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	require.NoError(t, svc.CreateProduct(ctx, &types.Product{ProductID: 3, UnitPrice: 12.50}))

	fulfilled := time.Now()
	require.NoError(t, svc.CreateOrder(ctx, &types.Order{
		OrderID:     7,
		ProductID:   3,
		Amount:      4,
		FulfilledAt: &fulfilled,
	}))

	var stored types.Order
	require.NoError(t, db.Where("order_id = ?", 7).First(&stored).Error)
	assert.Nil(t, stored.FulfilledAt)
}
