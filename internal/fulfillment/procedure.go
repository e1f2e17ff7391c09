package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/gorm"
)

// ProcedureService delegates the whole validation-and-write sequence to the
// fulfill_order stored procedure in a single round trip (MySQL deployments;
// the procedure DDL lives in internal/database/migrations/fulfill_order.sql).
//
// Error reporting on this path is strictly coarser than the pipeline's: only
// two rejection kinds can be recovered from the procedure's error text, and
// every other failure surfaces as an infrastructure error.
type ProcedureService struct {
	gormDB *gorm.DB
	db     *Database
}

func NewProcedureService(gormDB *gorm.DB) *ProcedureService {
	return &ProcedureService{
		gormDB: gormDB,
		db:     NewDatabase(gormDB),
	}
}

func (s *ProcedureService) Fulfill(ctx context.Context, req types.AllocationRequest) (Outcome, error) {
	var row struct {
		AllocationID uint
	}
	err := s.gormDB.WithContext(ctx).
		Raw("CALL fulfill_order(?, ?, ?, ?)", req.ProductID, req.WarehouseID, req.Amount, req.RequestedAt).
		Scan(&row).Error
	if err != nil {
		if reason, ok := classifyProcedureError(err); ok {
			log.Debug().
				Uint("product_id", req.ProductID).
				Uint("warehouse_id", req.WarehouseID).
				Str("reason", string(reason)).
				Str("service", "fulfillment").
				Msg("procedure rejected fulfillment")
			return Rejected(reason), nil
		}
		return Outcome{}, fmt.Errorf("call fulfill_order: %w", err)
	}

	allocation, err := s.db.GetAllocation(ctx, row.AllocationID)
	if err != nil {
		return Outcome{}, err
	}
	if allocation == nil {
		return Outcome{}, fmt.Errorf("fulfill_order returned unknown allocation id %d", row.AllocationID)
	}

	log.Info().
		Uint("allocation_id", allocation.AllocationID).
		Uint("order_id", allocation.OrderID).
		Float64("price", allocation.Price).
		Str("service", "fulfillment").
		Msg("order fulfilled via procedure")

	return Outcome{Allocation: allocation}, nil
}

// classifyProcedureError recovers a rejection reason from the procedure's
// signalled error text. Only the two messages the procedure raises explicitly
// are recognized; anything else is an infrastructure failure.
func classifyProcedureError(err error) (Reason, bool) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no order to fulfill"):
		return ReasonNoMatchingOrder, true
	case strings.Contains(msg, "invalid product"):
		return ReasonInvalidProduct, true
	default:
		return "", false
	}
}
