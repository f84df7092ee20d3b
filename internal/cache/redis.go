// Package cache wraps the optional redis layer: connection setup plus JSON
// cache-aside helpers. Every helper tolerates a nil client, so callers can
// run without redis entirely.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient connects to redis at addr. A failed ping is downgraded to a
// warning and a nil client; the application runs without caching.
func NewClient(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without cache)", err)
		return nil
	}
	return client
}
