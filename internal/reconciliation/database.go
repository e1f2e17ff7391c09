package reconciliation

import (
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

// FindUnreconciled returns fulfilled orders that have no allocation row and
// no previously recorded discrepancy.
func (d *Database) FindUnreconciled() ([]types.Order, error) {
	var orders []types.Order
	err := d.db.
		Where("fulfilled_at IS NOT NULL").
		Where("order_id NOT IN (?)", d.db.Model(&types.Allocation{}).Select("order_id")).
		Where("order_id NOT IN (?)", d.db.Model(&types.Discrepancy{}).Select("order_id")).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("query unreconciled orders: %w", err)
	}
	return orders, nil
}

func (d *Database) CreateDiscrepancy(discrepancy *types.Discrepancy) error {
	return d.db.Create(discrepancy).Error
}

func (d *Database) CountDiscrepancies() (int64, error) {
	var count int64
	if err := d.db.Model(&types.Discrepancy{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count discrepancies: %w", err)
	}
	return count, nil
}
