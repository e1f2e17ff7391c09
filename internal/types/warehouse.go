package types

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	gorm.Model `json:"-"`
	ProductID  uint      `gorm:"uniqueIndex" json:"product_id"`
	Name       string    `json:"name"`
	UnitPrice  float64   `json:"unit_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Warehouse struct {
	gorm.Model  `json:"-"`
	WarehouseID uint      `gorm:"uniqueIndex" json:"warehouse_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order rows are written by the ordering intake and mutated exactly once by the
// fulfillment workflow, which sets FulfilledAt.
type Order struct {
	gorm.Model  `json:"-"`
	OrderID     uint       `gorm:"uniqueIndex" json:"order_id"`
	ProductID   uint       `json:"product_id"`
	Amount      float64    `json:"amount"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Allocation is the product_warehouse record produced by a successful
// fulfillment. AllocationID is the generated identifier returned to callers;
// Price is Amount multiplied by the product's unit price at fulfillment time.
type Allocation struct {
	AllocationID uint      `gorm:"primaryKey;autoIncrement" json:"allocation_id"`
	WarehouseID  uint      `gorm:"index:idx_allocations_warehouse_product" json:"warehouse_id"`
	ProductID    uint      `gorm:"index:idx_allocations_warehouse_product" json:"product_id"`
	OrderID      uint      `json:"order_id"`
	Amount       float64   `json:"amount"`
	Price        float64   `json:"price"`
	CreatedAt    time.Time `json:"created_at"`
}

// Discrepancy records a fulfilled order with no matching allocation row, as
// found by the reconciliation sweep.
type Discrepancy struct {
	gorm.Model `json:"-"`
	OrderID    uint      `gorm:"uniqueIndex" json:"order_id"`
	DetectedAt time.Time `json:"detected_at"`
	Note       string    `json:"note"`
}
