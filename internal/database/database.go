package database

import (
	"fmt"

	"github.com/stockline/warehouse-api/internal/config"
	"github.com/stockline/warehouse-api/internal/database/migrations"
	"github.com/stockline/warehouse-api/internal/types"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase initializes and returns a new GORM DB connection for the
// configured driver. sqlite is the default; MySQL is required when the
// stored-procedure fulfillment engine is selected.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql":
		dialector = mysql.Open(cfg.DBDSN)
	case "sqlite":
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddAllocationLookupIndex(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&types.Product{},
		&types.Warehouse{},
		&types.Order{},
		&types.Discrepancy{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
