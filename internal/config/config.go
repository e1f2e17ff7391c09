package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Fulfillment engine selection. The pipeline runs the validation chain
// in-process; the procedure engine delegates to the fulfill_order stored
// procedure and needs a MySQL store.
const (
	EnginePipeline  = "pipeline"
	EngineProcedure = "procedure"
)

type Config struct {
	Env   string `env:"ENV" envDefault:"development"`
	Port  string `env:"PORT" envDefault:"8080"`
	Debug bool   `env:"DEBUG"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBDSN    string `env:"DB_DSN" envDefault:"warehouse.db"`

	FulfillEngine  string        `env:"FULFILL_ENGINE" envDefault:"pipeline"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"1m"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	switch cfg.FulfillEngine {
	case EnginePipeline, EngineProcedure:
	default:
		return nil, fmt.Errorf("unknown fulfillment engine %q", cfg.FulfillEngine)
	}

	return cfg, nil
}
