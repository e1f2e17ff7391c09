// Package ordering is the intake side of the system: it registers products,
// warehouses and purchase orders. Orders created here are later mutated
// exactly once by the fulfillment workflow.
package ordering

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

var (
	ErrDuplicateID    = errors.New("identifier already registered")
	ErrInvalidPayload = errors.New("invalid payload")
	ErrUnknownProduct = errors.New("unknown product")
)

type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

func (s *Service) CreateProduct(ctx context.Context, product *types.Product) error {
	if product.ProductID == 0 || product.UnitPrice <= 0 {
		return ErrInvalidPayload
	}

	exists, err := s.db.ProductExists(ctx, product.ProductID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateID
	}

	if err := s.db.CreateProduct(ctx, product); err != nil {
		return err
	}

	log.Info().
		Uint("product_id", product.ProductID).
		Float64("unit_price", product.UnitPrice).
		Str("service", "ordering").
		Msg("product registered")
	return nil
}

func (s *Service) CreateWarehouse(ctx context.Context, warehouse *types.Warehouse) error {
	if warehouse.WarehouseID == 0 {
		return ErrInvalidPayload
	}

	exists, err := s.db.WarehouseExists(ctx, warehouse.WarehouseID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateID
	}

	if err := s.db.CreateWarehouse(ctx, warehouse); err != nil {
		return err
	}

	log.Info().
		Uint("warehouse_id", warehouse.WarehouseID).
		Str("service", "ordering").
		Msg("warehouse registered")
	return nil
}

// CreateOrder registers a purchase order against an existing product. The
// caller may supply created_at; a zero value defaults to now.
func (s *Service) CreateOrder(ctx context.Context, order *types.Order) error {
	if order.OrderID == 0 || order.Amount <= 0 {
		return ErrInvalidPayload
	}

	productExists, err := s.db.ProductExists(ctx, order.ProductID)
	if err != nil {
		return err
	}
	if !productExists {
		return ErrUnknownProduct
	}

	exists, err := s.db.OrderExists(ctx, order.OrderID)
	if err != nil {
		return err
	}
	if exists {
		return ErrDuplicateID
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.FulfilledAt = nil

	if err := s.db.CreateOrder(ctx, order); err != nil {
		return err
	}

	log.Info().
		Uint("order_id", order.OrderID).
		Uint("product_id", order.ProductID).
		Float64("amount", order.Amount).
		Str("service", "ordering").
		Msg("order registered")
	return nil
}

// GinHandlers contains HTTP handlers for intake endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateProductHandler handles POST requests to register a product
func (h *GinHandlers) CreateProductHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var product types.Product
		if err := c.ShouldBindJSON(&product); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.CreateProduct(c.Request.Context(), &product); err != nil {
			handleIntakeError(c, err)
			return
		}

		response.Success(c, product)
	}
}

// CreateWarehouseHandler handles POST requests to register a warehouse
func (h *GinHandlers) CreateWarehouseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var warehouse types.Warehouse
		if err := c.ShouldBindJSON(&warehouse); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.CreateWarehouse(c.Request.Context(), &warehouse); err != nil {
			handleIntakeError(c, err)
			return
		}

		response.Success(c, warehouse)
	}
}

// CreateOrderHandler handles POST requests to register a purchase order
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var order types.Order
		if err := c.ShouldBindJSON(&order); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		if err := h.service.CreateOrder(c.Request.Context(), &order); err != nil {
			handleIntakeError(c, err)
			return
		}

		response.Success(c, order)
	}
}

func handleIntakeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPayload):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrDuplicateID):
		response.Conflict(c, "DUPLICATE_RESOURCE", err.Error())
	case errors.Is(err, ErrUnknownProduct):
		response.Conflict(c, "UNKNOWN_PRODUCT", err.Error())
	default:
		log.Error().Err(err).Msg("intake failed")
		response.InternalError(c, "An unexpected error occurred")
	}
}
