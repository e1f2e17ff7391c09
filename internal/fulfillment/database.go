package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/gorm"
)

var (
	// ErrNoMatchingOrder is returned by CommitFulfillment when the conditional
	// update finds no unfulfilled order row. This is the authoritative re-check
	// against concurrent fulfillment, distinct from the advisory pipeline check.
	ErrNoMatchingOrder = errors.New("no order to fulfill")

	// ErrInvalidProduct is returned when the product row vanished between the
	// pipeline check and the commit phase.
	ErrInvalidProduct = errors.New("invalid product id")
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// GetProduct returns the product with the given business id, or nil if absent.
func (d *Database) GetProduct(ctx context.Context, productID uint) (*types.Product, error) {
	var product types.Product
	if err := d.db.WithContext(ctx).Where("product_id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &product, nil
}

func (d *Database) WarehouseExists(ctx context.Context, warehouseID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&types.Warehouse{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("query warehouse: %w", err)
	}
	return count > 0, nil
}

// OrderExists reports whether any order matches the product and amount,
// fulfilled or not. Used to distinguish "no such order" from "order already
// fulfilled" when FindOpenOrder comes up empty.
func (d *Database) OrderExists(ctx context.Context, productID uint, amount float64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&types.Order{}).
		Where("product_id = ? AND amount = ?", productID, amount).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("query order: %w", err)
	}
	return count > 0, nil
}

// FindOpenOrder returns the oldest unfulfilled order for the product and
// amount, or nil if none exists.
func (d *Database) FindOpenOrder(ctx context.Context, productID uint, amount float64) (*types.Order, error) {
	var order types.Order
	if err := d.db.WithContext(ctx).
		Where("product_id = ? AND amount = ? AND fulfilled_at IS NULL", productID, amount).
		Order("created_at ASC").
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query open order: %w", err)
	}
	return &order, nil
}

func (d *Database) AllocationExists(ctx context.Context, warehouseID, productID uint) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&types.Allocation{}).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("query allocation: %w", err)
	}
	return count > 0, nil
}

// CommitFulfillment marks the order fulfilled and inserts the priced
// allocation row in one transaction. The order update is conditional on
// fulfilled_at still being null, so two concurrent requests for the same
// order cannot both commit. The unit price is re-read inside the transaction
// so the committed price reflects the price at fulfillment time.
func (d *Database) CommitFulfillment(ctx context.Context, req types.AllocationRequest, orderID uint) (*types.Allocation, error) {
	now := time.Now()

	tx := d.db.WithContext(ctx).Begin()
	if err := tx.Error; err != nil {
		return nil, fmt.Errorf("begin fulfillment transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&types.Order{}).
		Where("order_id = ? AND fulfilled_at IS NULL", orderID).
		Update("fulfilled_at", now)
	if result.Error != nil {
		tx.Rollback()
		return nil, fmt.Errorf("mark order fulfilled: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrNoMatchingOrder
	}

	var product types.Product
	if err := tx.Where("product_id = ?", req.ProductID).First(&product).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidProduct
		}
		return nil, fmt.Errorf("read unit price: %w", err)
	}

	allocation := &types.Allocation{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		OrderID:     orderID,
		Amount:      req.Amount,
		Price:       req.Amount * product.UnitPrice,
		CreatedAt:   now,
	}
	if err := tx.Create(allocation).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert allocation: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("commit fulfillment: %w", err)
	}

	return allocation, nil
}

// GetAllocation returns the allocation with the given generated id.
func (d *Database) GetAllocation(ctx context.Context, allocationID uint) (*types.Allocation, error) {
	var allocation types.Allocation
	if err := d.db.WithContext(ctx).Where("allocation_id = ?", allocationID).First(&allocation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query allocation: %w", err)
	}
	return &allocation, nil
}
