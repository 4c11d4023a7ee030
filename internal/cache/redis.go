package cache

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to the optional snapshot mirror. The mirror is
// best-effort: any problem disables it with a warning instead of failing the
// run, and a nil client is returned.
func InitRedis(ctx context.Context, addr string) *redis.Client {
	if addr == "" {
		return nil
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Printf("Warning: failed to parse REDIS_URL, mirror disabled: %v", err)
			return nil
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("Warning: failed to connect to Redis, mirror disabled: %v", err)
		return nil
	}
	log.Println("Connected to Redis")
	return client
}
