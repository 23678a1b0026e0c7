package repository

import (
	"context"

	"github.com/poi-cluster-service/internal/domain"
)

// PointRepository определяет источник статического набора точек
type PointRepository interface {
	// LoadAll возвращает полный снимок набора точек
	LoadAll(ctx context.Context) ([]domain.Point, error)
}
