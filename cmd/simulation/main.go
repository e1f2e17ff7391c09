package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stockline/warehouse-api/internal/config"
	"github.com/stockline/warehouse-api/internal/database"
	"github.com/stockline/warehouse-api/internal/fulfillment"
	"github.com/stockline/warehouse-api/internal/ordering"
	"github.com/stockline/warehouse-api/internal/types"
)

const (
	numProducts   = 5
	numWarehouses = 8
	minOrders     = 15
	maxOrders     = 150
	numWorkers    = 5
	serverAddress = "http://localhost:8080"
)

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the fulfillment API
type simulationClient struct {
	baseURL string
	client  *http.Client
	stats   map[string]*routeStats
}

// newSimulationClient creates and initializes a new simulation client
func newSimulationClient() *simulationClient {
	return &simulationClient{
		baseURL: serverAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		stats: map[string]*routeStats{
			"product":   {name: "Create Product"},
			"warehouse": {name: "Create Warehouse"},
			"order":     {name: "Create Order"},
			"fulfill":   {name: "Fulfill Order"},
		},
	}
}

// post sends a JSON payload and decodes the standard response envelope.
// A 409 is returned to the caller as the conflict error code, not a failure.
func (sc *simulationClient) post(route, path string, payload interface{}) (conflictCode string, err error) {
	start := time.Now()
	defer func() {
		sc.stats[route].addDuration(time.Since(start))
		if err != nil {
			sc.stats[route].failures++
		}
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s%s", sc.baseURL, path),
		bytes.NewBuffer(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := sc.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode == http.StatusConflict {
		var result struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &result); err != nil {
			return "", fmt.Errorf("failed to decode conflict response: %w, body: %s", err, string(respBody))
		}
		return result.Error.Code, nil
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	return "", nil
}

// main runs the fulfillment simulation
// It starts a local API server, seeds catalog data, registers purchase orders
// and then drives concurrent fulfillment requests against them
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	simClient := newSimulationClient()

	// Seed products and warehouses
	for i := 1; i <= numProducts; i++ {
		product := types.Product{
			ProductID: uint(i),
			Name:      fmt.Sprintf("PRODUCT_%d", i),
			UnitPrice: float64(rand.Intn(9000)+1000) / 100,
		}
		if _, err := simClient.post("product", "/api/v1/products", product); err != nil {
			log.Fatal().Err(err).Uint("product_id", product.ProductID).Msg("Failed to seed product")
		}
	}
	for i := 1; i <= numWarehouses; i++ {
		warehouse := types.Warehouse{
			WarehouseID: uint(i),
			Name:        fmt.Sprintf("WAREHOUSE_%d", i),
		}
		if _, err := simClient.post("warehouse", "/api/v1/warehouses", warehouse); err != nil {
			log.Fatal().Err(err).Uint("warehouse_id", warehouse.WarehouseID).Msg("Failed to seed warehouse")
		}
	}

	// Generate random number of orders to process
	targetOrders := rand.Intn(maxOrders-minOrders) + minOrders
	log.Info().Int("target_orders", targetOrders).Msg("Starting simulation")

	// Channel to collect registered orders
	ordersChan := make(chan types.Order, targetOrders)
	var orderSeq atomic.Uint64
	var wg sync.WaitGroup

	// Start worker goroutines
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			createOrdersHTTP(workerID, targetOrders/numWorkers, simClient, &orderSeq, ordersChan)
		}(i)
	}

	// Wait for all orders to be created
	wg.Wait()
	close(ordersChan)

	var orders []types.Order
	for order := range ordersChan {
		orders = append(orders, order)
	}

	log.Info().Int("orders_created", len(orders)).Msg("All orders created")

	// Collect statistics during processing
	stats := struct {
		TotalOrders     int
		Fulfilled       int
		Conflicts       int
		FailedFulfill   int
		TotalValue      float64
		StartTime       time.Time
		ConflictReasons map[string]int
		Warehouses      map[uint]int
	}{
		StartTime:       time.Now(),
		ConflictReasons: make(map[string]int),
		Warehouses:      make(map[uint]int),
	}
	stats.TotalOrders = len(orders)

	// Fulfill each order from a random warehouse
	for _, order := range orders {
		warehouseID := uint(rand.Intn(numWarehouses) + 1)
		request := types.AllocationRequest{
			ProductID:   order.ProductID,
			WarehouseID: warehouseID,
			Amount:      order.Amount,
			RequestedAt: time.Now(),
		}

		conflictCode, err := simClient.post("fulfill", "/api/v1/allocations", request)
		if err != nil {
			log.Error().Err(err).Uint("order_id", order.OrderID).Msg("Failed to fulfill order")
			stats.FailedFulfill++
			continue
		}
		if conflictCode != "" {
			stats.Conflicts++
			stats.ConflictReasons[conflictCode]++
			log.Info().
				Uint("order_id", order.OrderID).
				Str("reason", conflictCode).
				Msg("Fulfillment rejected")
			continue
		}

		stats.Fulfilled++
		stats.Warehouses[warehouseID]++
		log.Info().
			Uint("order_id", order.OrderID).
			Uint("product_id", order.ProductID).
			Uint("warehouse_id", warehouseID).
			Float64("amount", order.Amount).
			Msg("Order fulfilled")
	}

	// Print summary
	duration := time.Since(stats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("FULFILLMENT SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
Order Statistics
----------------
Total Orders:    %d
Fulfilled:       %d
Conflicts:       %d
Failed Requests: %d
Duration:        %v

Conflict Reasons
----------------
`, stats.TotalOrders, stats.Fulfilled, stats.Conflicts, stats.FailedFulfill,
		duration.Round(time.Millisecond))

	for reason, count := range stats.ConflictReasons {
		fmt.Printf("%-30s: %d\n", reason, count)
	}

	fmt.Println("\nWarehouse Distribution")
	fmt.Println("----------------------")
	maxWarehouseCount := 0
	for _, count := range stats.Warehouses {
		if count > maxWarehouseCount {
			maxWarehouseCount = count
		}
	}
	for warehouseID, count := range stats.Warehouses {
		barLength := int(float64(count) / float64(maxWarehouseCount) * 20)
		bar := strings.Repeat("#", barLength)
		fmt.Printf("WH_%-3d: %s (%d)\n", warehouseID, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	successRate := float64(stats.Fulfilled) / float64(stats.TotalOrders) * 100
	log.Info().
		Float64("success_rate", successRate).
		Int("total_orders", stats.TotalOrders).
		Int("fulfilled", stats.Fulfilled).
		Dur("duration", duration).
		Msg("Simulation completed")

	simClient.printPerformanceStats()
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func (sc *simulationClient) printPerformanceStats() {
	fmt.Println("\nAPI Performance Statistics")
	fmt.Println(strings.Repeat("-", 100))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 100))

	for _, stats := range sc.stats {
		min, max, mean, median, p95, p99 := stats.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			stats.name,
			stats.totalCalls,
			stats.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 100))
}

// createOrdersHTTP registers random purchase orders through the API
// Runs as a worker goroutine, sending registered orders to ordersChan
func createOrdersHTTP(workerID, numOrders int, simClient *simulationClient, orderSeq *atomic.Uint64, ordersChan chan<- types.Order) {
	for i := 0; i < numOrders; i++ {
		order := types.Order{
			OrderID:   uint(orderSeq.Add(1)),
			ProductID: uint(rand.Intn(numProducts) + 1),
			Amount:    float64(rand.Intn(20) + 1),
			CreatedAt: time.Now(),
		}

		conflictCode, err := simClient.post("order", "/api/v1/orders", order)
		if err != nil {
			log.Error().Err(err).
				Int("worker_id", workerID).
				Uint("order_id", order.OrderID).
				Msg("Failed to create order")
			continue
		}
		if conflictCode != "" {
			log.Warn().
				Int("worker_id", workerID).
				Uint("order_id", order.OrderID).
				Str("reason", conflictCode).
				Msg("Order rejected")
			continue
		}

		ordersChan <- order
		log.Info().
			Int("worker_id", workerID).
			Uint("order_id", order.OrderID).
			Uint("product_id", order.ProductID).
			Float64("amount", order.Amount).
			Msg("Order created")

		// Random sleep between orders
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// startServer initializes and starts the fulfillment API server
// Sets up all required services, handlers and routes
func startServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	fulfillmentService := fulfillment.NewService(db)
	orderingService := ordering.NewService(db)

	// Initialize router
	router := gin.Default()
	fulfillmentHandlers := fulfillment.NewGinHandlers(fulfillmentService, cfg.RequestTimeout)
	orderingHandlers := ordering.NewGinHandlers(orderingService)

	// Setup routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/allocations", fulfillmentHandlers.FulfillHandler())
		v1.POST("/products", orderingHandlers.CreateProductHandler())
		v1.POST("/warehouses", orderingHandlers.CreateWarehouseHandler())
		v1.POST("/orders", orderingHandlers.CreateOrderHandler())
	}

	// Start the server
	return router.Run(":" + cfg.Port)
}
