package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/stockline/warehouse-api/internal/config"
	"github.com/stockline/warehouse-api/internal/database"
	"github.com/stockline/warehouse-api/internal/fulfillment"
	"github.com/stockline/warehouse-api/internal/ordering"
	"github.com/stockline/warehouse-api/internal/reconciliation"
	"github.com/stockline/warehouse-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the fulfillment API server with graceful shutdown
// support. The fulfillment engine (in-process pipeline or stored procedure) is
// selected from configuration.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Select the fulfillment engine
	var fulfiller fulfillment.Fulfiller
	switch cfg.FulfillEngine {
	case config.EngineProcedure:
		fulfiller = fulfillment.NewProcedureService(db)
	default:
		fulfiller = fulfillment.NewService(db)
	}
	zlog.Info().Str("engine", cfg.FulfillEngine).Msg("Fulfillment engine selected")

	fulfillmentHandlers := fulfillment.NewGinHandlers(fulfiller, cfg.RequestTimeout)

	orderingService := ordering.NewService(db)
	orderingHandlers := ordering.NewGinHandlers(orderingService)

	// Create and start reconciliation processor
	reconProcessor := reconciliation.NewProcessor(db, cfg.ReconcileInterval)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go reconProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, fulfillmentHandlers, orderingHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// Parameters:
//   - router: The main Gin router instance
//   - fulfillmentHandlers: Handlers for order fulfillment
//   - orderingHandlers: Handlers for product/warehouse/order intake
func setupRoutes(
	router *gin.Engine,
	fulfillmentHandlers *fulfillment.GinHandlers,
	orderingHandlers *ordering.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Fulfillment route
		v1.POST("/allocations", fulfillmentHandlers.FulfillHandler())

		// Intake routes
		v1.POST("/products", orderingHandlers.CreateProductHandler())
		v1.POST("/warehouses", orderingHandlers.CreateWarehouseHandler())
		v1.POST("/orders", orderingHandlers.CreateOrderHandler())
	}
}
