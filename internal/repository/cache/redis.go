package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/config"
)

type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := ping(client); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &Redis{
		client: client,
		logger: logger,
	}, nil
}

// NewRedisStreams создаёт отдельный клиент для Redis Streams.
// XREADGROUP блокирует соединение, поэтому таймаут чтения должен
// превышать время блокировки, а пул не делится с кешем.
func NewRedisStreams(cfg *config.RedisConfig, blockTimeout time.Duration, logger *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		ReadTimeout: blockTimeout + 2*time.Second,
	})

	if err := ping(client); err != nil {
		return nil, fmt.Errorf("failed to connect to redis streams: %w", err)
	}

	logger.Info("Redis Streams connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Duration("read_timeout", blockTimeout+2*time.Second),
	)

	return client, nil
}

func ping(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
