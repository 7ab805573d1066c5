package kv

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Driver names accepted by Open.
const (
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Open constructs the Store selected by driver.
func Open(ctx context.Context, driver, redisURL, sqlitePath string, log zerolog.Logger) (Store, error) {
	switch driver {
	case DriverRedis:
		return NewRedisStore(ctx, redisURL, log)
	case DriverSQLite:
		return NewSQLiteStore(ctx, sqlitePath, log)
	case DriverMemory:
		log.Warn().Msg("Using in-memory store — deadlines will not survive a restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", driver)
	}
}
