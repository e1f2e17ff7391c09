package types

import "time"

// AllocationRequest is the inbound fulfillment payload. The created_at field
// carries the caller's request timestamp, which must postdate the creation of
// the order being fulfilled. Amount and timestamp are left to the workflow to
// judge so their rejections surface as conflicts, not transport errors.
type AllocationRequest struct {
	ProductID   uint      `json:"product_id" binding:"required"`
	WarehouseID uint      `json:"warehouse_id" binding:"required"`
	Amount      float64   `json:"amount"`
	RequestedAt time.Time `json:"created_at"`
}

// AllocationResponse is returned on a successful fulfillment.
type AllocationResponse struct {
	AllocationID uint      `json:"allocation_id"`
	WarehouseID  uint      `json:"warehouse_id"`
	ProductID    uint      `json:"product_id"`
	OrderID      uint      `json:"order_id"`
	Amount       float64   `json:"amount"`
	Price        float64   `json:"price"`
	CreatedAt    time.Time `json:"created_at"`
}
