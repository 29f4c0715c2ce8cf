package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthbridge/healthbridge-backend/internal/pkg/envutil"
	"github.com/healthbridge/healthbridge-backend/internal/pkg/logger"
)

// New connects to Redis using the standard env config and verifies the
// connection with a bounded ping.
func New(log *logger.Logger) (*redis.Client, error) {
	addr := envutil.Str("REDIS_ADDR", "localhost:6379")
	password := envutil.Str("REDIS_PASSWORD", "")
	db := envutil.Int("REDIS_DB", 0)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "addr", addr, "error", err)
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("Connected to Redis", "addr", addr)
	return client, nil
}
