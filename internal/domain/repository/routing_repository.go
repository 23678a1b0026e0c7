package repository

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/poi-cluster-service/internal/domain"
)

// RoutingRepository - клиент внешнего сервиса маршрутизации
type RoutingRepository interface {
	// GetRoute возвращает маршрут через заданные точки (lon, lat)
	GetRoute(ctx context.Context, waypoints []orb.Point) (*domain.RouteSegment, error)
}
