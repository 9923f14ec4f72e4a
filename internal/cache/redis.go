package cache

import (
	"context"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Client is nil when Redis is unavailable; callers treat that as a cache
// miss, never an error.
var Client *redis.Client

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects the package-level client to the given address. Plain
// host:port addresses and redis:// or rediss:// URLs are both accepted. An
// unreachable server leaves the client nil and the service runs uncached.
func InitRedis(ctx context.Context, addr string) {
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			log.Fatalf("failed to parse redis address: %v", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		log.Printf("Redis unavailable at %s, running uncached: %v", opts.Addr, err)
		Client = nil
		return
	}
	Client = client
	log.Println("Connected to Redis")
}

// Close releases the client connection pool. Safe to call when Redis was
// never connected.
func Close() {
	if Client == nil {
		return
	}
	if err := Client.Close(); err != nil {
		log.Printf("close redis client: %v", err)
	}
	Client = nil
}
