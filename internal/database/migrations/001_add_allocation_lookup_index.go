package migrations

import (
	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/gorm"
)

// AddAllocationLookupIndex creates the allocations table with its composite
// (warehouse_id, product_id) lookup index. The index backs the pre-write
// uniqueness check; it is deliberately non-unique, matching the check-based
// enforcement of the one-allocation-per-pair rule.
func AddAllocationLookupIndex(db *gorm.DB) error {
	if err := db.AutoMigrate(&types.Allocation{}); err != nil {
		return err
	}

	if !db.Migrator().HasIndex(&types.Allocation{}, "idx_allocations_warehouse_product") {
		return db.Migrator().CreateIndex(&types.Allocation{}, "idx_allocations_warehouse_product")
	}

	return nil
}
