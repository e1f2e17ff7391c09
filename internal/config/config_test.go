package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/warehouse?parseTime=true")
	t.Setenv("FULFILL_ENGINE", "procedure")
	t.Setenv("REQUEST_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, EngineProcedure, cfg.FulfillEngine)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoad_DefaultEngine(t *testing.T) {
	t.Setenv("FULFILL_ENGINE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnginePipeline, cfg.FulfillEngine)
}

func TestLoad_RejectsUnknownEngine(t *testing.T) {
	t.Setenv("FULFILL_ENGINE", "sideways")

	_, err := Load()
	require.Error(t, err)
}
