package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/eventhub-api/internal/config"
)

func TestPoolConfigFrom(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.MaxOpenConns = 20
	cfg.DB.MaxIdleConns = 50
	cfg.DB.ConnMaxLifetime = 10 * time.Minute

	pool := PoolConfigFrom(cfg)
	assert.Equal(t, 20, pool.MaxOpenConns)
	assert.Equal(t, 20, pool.MaxIdleConns, "idle connections are capped at the open limit")
	assert.Equal(t, 10*time.Minute, pool.ConnMaxLifetime)

	pool = PoolConfigFrom(&config.Config{})
	assert.Equal(t, 25, pool.MaxOpenConns)
	assert.Equal(t, 25, pool.MaxIdleConns)
	assert.Equal(t, time.Hour, pool.ConnMaxLifetime)
}

func TestValidateDatabaseConfig(t *testing.T) {
	assert.Error(t, validateDatabaseConfig(nil))

	err := validateDatabaseConfig(&config.Config{})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "host")
		assert.Contains(t, err.Error(), "user")
	}

	cfg := &config.Config{}
	cfg.DB.Host, cfg.DB.Port, cfg.DB.Name, cfg.DB.User = "localhost", "5432", "eventhub", "eventhub"
	assert.NoError(t, validateDatabaseConfig(cfg))
}
