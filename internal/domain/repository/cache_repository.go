package repository

import (
	"context"
	"time"

	"github.com/poi-cluster-service/internal/domain"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetHiddenNames получает множество скрытых имён для поколения индекса и зума.
	// Промах кеша возвращает nil, nil.
	GetHiddenNames(ctx context.Context, generation uint32, zoom int) (domain.HiddenSet, error)

	// SetHiddenNames сохраняет множество скрытых имён
	SetHiddenNames(ctx context.Context, generation uint32, zoom int, hidden domain.HiddenSet, ttl time.Duration) error
}
