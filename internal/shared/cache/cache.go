package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis opens the client backing the demo balance cache and
// pings it so a bad address fails at startup, not on the first read.
func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}
