package ordering

import (
	"context"
	"fmt"

	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateProduct(ctx context.Context, product *types.Product) error {
	return d.db.WithContext(ctx).Create(product).Error
}

func (d *Database) CreateWarehouse(ctx context.Context, warehouse *types.Warehouse) error {
	return d.db.WithContext(ctx).Create(warehouse).Error
}

func (d *Database) CreateOrder(ctx context.Context, order *types.Order) error {
	return d.db.WithContext(ctx).Create(order).Error
}

func (d *Database) ProductExists(ctx context.Context, productID uint) (bool, error) {
	return d.exists(ctx, &types.Product{}, "product_id = ?", productID)
}

func (d *Database) WarehouseExists(ctx context.Context, warehouseID uint) (bool, error) {
	return d.exists(ctx, &types.Warehouse{}, "warehouse_id = ?", warehouseID)
}

func (d *Database) OrderExists(ctx context.Context, orderID uint) (bool, error) {
	return d.exists(ctx, &types.Order{}, "order_id = ?", orderID)
}

func (d *Database) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, fmt.Errorf("query existence: %w", err)
	}
	return count > 0, nil
}
