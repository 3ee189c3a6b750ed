package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BalanceCache is a read-through cache for demo balances. The ledger
// writes through on every settle, so the TTL only bounds staleness
// after external writes (there are none) or missed updates.
type BalanceCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *BalanceCache {
	return &BalanceCache{rdb: rdb, ttl: ttl}
}

func key(wallet string) string { return fmt.Sprintf("balance:%s", wallet) }

// Get returns the cached balance in lamports; ok=false on miss or any
// Redis error (callers fall back to Postgres).
func (c *BalanceCache) Get(ctx context.Context, wallet string) (int64, bool) {
	val, err := c.rdb.Get(ctx, key(wallet)).Result()
	if err != nil {
		return 0, false
	}
	bal, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return bal, true
}

// Set stores the balance; errors are ignored, the cache is best-effort.
func (c *BalanceCache) Set(ctx context.Context, wallet string, lamports int64) {
	_ = c.rdb.Set(ctx, key(wallet), strconv.FormatInt(lamports, 10), c.ttl).Err()
}
