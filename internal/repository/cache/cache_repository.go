package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return newCacheRepository(redis.Client(), redis.logger)
}

func newCacheRepository(client *redis.Client, logger *zap.Logger) *cacheRepository {
	return &cacheRepository{
		client: client,
		logger: logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// HiddenNamesKey - ключ множества скрытых имён; поколение индекса делает
// записи старых наборов данных недостижимыми
func HiddenNamesKey(generation uint32, zoom int) string {
	return fmt.Sprintf("hidden:%d:%d", generation, zoom)
}

// GetHiddenNames получает множество скрытых имён из кеша
func (r *cacheRepository) GetHiddenNames(ctx context.Context, generation uint32, zoom int) (domain.HiddenSet, error) {
	data, err := r.Get(ctx, HiddenNamesKey(generation, zoom))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil // Cache miss
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		r.logger.Error("Failed to unmarshal hidden names from cache", zap.Error(err))
		return nil, fmt.Errorf("unmarshal hidden names: %w", err)
	}

	hidden := make(domain.HiddenSet, len(names))
	for _, name := range names {
		hidden[name] = struct{}{}
	}
	return hidden, nil
}

// SetHiddenNames сохраняет множество скрытых имён отсортированным списком
func (r *cacheRepository) SetHiddenNames(ctx context.Context, generation uint32, zoom int, hidden domain.HiddenSet, ttl time.Duration) error {
	data, err := json.Marshal(hidden.Names())
	if err != nil {
		r.logger.Error("Failed to marshal hidden names", zap.Error(err))
		return fmt.Errorf("marshal hidden names: %w", err)
	}

	return r.Set(ctx, HiddenNamesKey(generation, zoom), data, ttl)
}
