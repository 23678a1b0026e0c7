package usecase_test

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/mock"

	"github.com/poi-cluster-service/internal/domain"
)

// MockPointRepository is a mock of PointRepository
type MockPointRepository struct {
	mock.Mock
}

func (m *MockPointRepository) LoadAll(ctx context.Context) ([]domain.Point, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Point), args.Error(1)
}

// MockCacheRepository is a mock of CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetHiddenNames(ctx context.Context, generation uint32, zoom int) (domain.HiddenSet, error) {
	args := m.Called(ctx, generation, zoom)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.HiddenSet), args.Error(1)
}

func (m *MockCacheRepository) SetHiddenNames(ctx context.Context, generation uint32, zoom int, hidden domain.HiddenSet, ttl time.Duration) error {
	args := m.Called(ctx, generation, zoom, hidden, ttl)
	return args.Error(0)
}

// MockRoutingRepository is a mock of RoutingRepository
type MockRoutingRepository struct {
	mock.Mock
}

func (m *MockRoutingRepository) GetRoute(ctx context.Context, waypoints []orb.Point) (*domain.RouteSegment, error) {
	args := m.Called(ctx, waypoints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteSegment), args.Error(1)
}
