package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stockline/warehouse-api/internal/types"
	"github.com/stockline/warehouse-api/pkg/response"
	"gorm.io/gorm"
)

// Fulfiller records fulfillment of a purchase order by allocating warehouse
// stock to a product. Service (the in-process pipeline) and ProcedureService
// (the stored-procedure delegation) both satisfy it; the engine is chosen by
// configuration at startup.
type Fulfiller interface {
	Fulfill(ctx context.Context, req types.AllocationRequest) (Outcome, error)
}

// Service is the in-process pipeline implementation: an ordered chain of
// validation reads followed by a single transactional write.
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Fulfill runs the validation pipeline and, if every check passes, commits the
// fulfillment. Checks short-circuit on the first failure and each failure maps
// to a distinct Reason. The pipeline checks are advisory under concurrency;
// the conditional update inside CommitFulfillment is the authoritative one.
func (s *Service) Fulfill(ctx context.Context, req types.AllocationRequest) (Outcome, error) {
	logger := log.With().
		Uint("product_id", req.ProductID).
		Uint("warehouse_id", req.WarehouseID).
		Float64("amount", req.Amount).
		Str("service", "fulfillment").
		Logger()

	// Non-positive amounts are rejected before any store round trip.
	if req.Amount <= 0 {
		logger.Debug().Msg("rejecting non-positive amount")
		return Rejected(ReasonProductOrWarehouseInvalid), nil
	}

	product, err := s.db.GetProduct(ctx, req.ProductID)
	if err != nil {
		return Outcome{}, err
	}
	if product == nil {
		logger.Debug().Msg("rejecting unknown product")
		return Rejected(ReasonProductOrWarehouseInvalid), nil
	}

	warehouseExists, err := s.db.WarehouseExists(ctx, req.WarehouseID)
	if err != nil {
		return Outcome{}, err
	}
	if !warehouseExists {
		logger.Debug().Msg("rejecting unknown warehouse")
		return Rejected(ReasonProductOrWarehouseInvalid), nil
	}

	order, err := s.db.FindOpenOrder(ctx, req.ProductID, req.Amount)
	if err != nil {
		return Outcome{}, err
	}
	if order == nil {
		// No open order. Either no order matches at all, or every match was
		// already fulfilled, in which case the rejection mirrors what the
		// commit phase would have reported.
		exists, err := s.db.OrderExists(ctx, req.ProductID, req.Amount)
		if err != nil {
			return Outcome{}, err
		}
		if !exists {
			logger.Debug().Msg("rejecting, no matching order")
			return Rejected(ReasonOrderNotFound), nil
		}

		allocated, err := s.db.AllocationExists(ctx, req.WarehouseID, req.ProductID)
		if err != nil {
			return Outcome{}, err
		}
		if allocated {
			logger.Debug().Msg("rejecting, allocation already exists")
			return Rejected(ReasonAlreadyAllocated), nil
		}

		logger.Debug().Msg("rejecting, matching order already fulfilled")
		return Rejected(ReasonNoMatchingOrder), nil
	}

	allocated, err := s.db.AllocationExists(ctx, req.WarehouseID, req.ProductID)
	if err != nil {
		return Outcome{}, err
	}
	if allocated {
		logger.Debug().Uint("order_id", order.OrderID).Msg("rejecting, allocation already exists")
		return Rejected(ReasonAlreadyAllocated), nil
	}

	// The request must postdate the creation of the specific matched order.
	if !req.RequestedAt.After(order.CreatedAt) {
		logger.Debug().
			Uint("order_id", order.OrderID).
			Time("order_created_at", order.CreatedAt).
			Time("requested_at", req.RequestedAt).
			Msg("rejecting stale request timestamp")
		return Rejected(ReasonStaleTimestamp), nil
	}

	allocation, err := s.db.CommitFulfillment(ctx, req, order.OrderID)
	if err != nil {
		if errors.Is(err, ErrNoMatchingOrder) {
			logger.Info().Uint("order_id", order.OrderID).Msg("lost fulfillment race, order already fulfilled")
			return Rejected(ReasonNoMatchingOrder), nil
		}
		if errors.Is(err, ErrInvalidProduct) {
			return Rejected(ReasonProductOrWarehouseInvalid), nil
		}
		return Outcome{}, err
	}

	logger.Info().
		Uint("allocation_id", allocation.AllocationID).
		Uint("order_id", order.OrderID).
		Float64("price", allocation.Price).
		Msg("order fulfilled")

	return Outcome{Allocation: allocation}, nil
}

// GinHandlers contains HTTP handlers for fulfillment endpoints
type GinHandlers struct {
	fulfiller Fulfiller
	timeout   time.Duration
}

// NewGinHandlers creates a new set of HTTP handlers for fulfillment endpoints.
// The timeout bounds each request's chain of persistence calls.
func NewGinHandlers(fulfiller Fulfiller, timeout time.Duration) *GinHandlers {
	return &GinHandlers{
		fulfiller: fulfiller,
		timeout:   timeout,
	}
}

// FulfillHandler handles POST requests to allocate warehouse stock against an
// open order. Business-rule rejections return 409 with the reason code; store
// failures return 500.
func (h *GinHandlers) FulfillHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.AllocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		outcome, err := h.fulfiller.Fulfill(ctx, req)
		if err != nil {
			log.Error().Err(err).
				Uint("product_id", req.ProductID).
				Uint("warehouse_id", req.WarehouseID).
				Msg("fulfillment failed")
			response.InternalError(c, "Fulfillment failed")
			return
		}

		if !outcome.Created() {
			response.Conflict(c, string(outcome.Reason), outcome.Reason.Message())
			return
		}

		allocation := outcome.Allocation
		response.Success(c, types.AllocationResponse{
			AllocationID: allocation.AllocationID,
			WarehouseID:  allocation.WarehouseID,
			ProductID:    allocation.ProductID,
			OrderID:      allocation.OrderID,
			Amount:       allocation.Amount,
			Price:        allocation.Price,
			CreatedAt:    allocation.CreatedAt,
		})
	}
}
