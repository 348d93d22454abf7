package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the db and redis checks. A dependency that is
// not configured gets a nil check, which /readyz skips.
func BuildReadinessChecks(pool Pinger, rdb goredis.UniversalClient) (dbCheck, redisCheck func(ctx context.Context) error) {
	if pool != nil {
		dbCheck = pool.Ping
	}
	if rdb != nil {
		redisCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return dbCheck, redisCheck
}
