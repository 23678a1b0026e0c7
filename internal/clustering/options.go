package clustering

import (
	"fmt"

	"github.com/poi-cluster-service/internal/config"
)

const (
	// MaxSupportedZoom - предел зума; z+1 должен помещаться в 5 бит идентификатора
	MaxSupportedZoom = 24

	defaultMinZoom   = 0
	defaultMaxZoom   = 16
	defaultMinPoints = 2
	defaultRadius    = 40
	defaultExtent    = 512
)

// Options - параметры построения индекса.
// Radius задаётся в пикселях тайла размера Extent.
type Options struct {
	MinZoom   int     `json:"min_zoom" yaml:"min_zoom"`
	MaxZoom   int     `json:"max_zoom" yaml:"max_zoom"`
	MinPoints int     `json:"min_points" yaml:"min_points"`
	Radius    float64 `json:"radius" yaml:"radius"`
	Extent    float64 `json:"extent" yaml:"extent"`
}

// DefaultOptions возвращает параметры по умолчанию (как в supercluster)
func DefaultOptions() Options {
	return Options{
		MinZoom:   defaultMinZoom,
		MaxZoom:   defaultMaxZoom,
		MinPoints: defaultMinPoints,
		Radius:    defaultRadius,
		Extent:    defaultExtent,
	}
}

// FromConfig переносит параметры из конфигурации приложения.
// Проверка значений происходит при построении индекса.
func FromConfig(cfg config.ClusterConfig) Options {
	return Options{
		MinZoom:   cfg.MinZoom,
		MaxZoom:   cfg.MaxZoom,
		MinPoints: cfg.MinPoints,
		Radius:    cfg.Radius,
		Extent:    cfg.Extent,
	}
}

// normalize validates the radius and clamps everything else into a usable range.
func (o Options) normalize() (Options, error) {
	if !(o.Radius > 0) {
		return o, fmt.Errorf("cluster radius must be > 0, got %v", o.Radius)
	}
	if o.Extent <= 0 {
		o.Extent = defaultExtent
	}
	if o.MinPoints < 2 {
		o.MinPoints = defaultMinPoints
	}
	o.MinZoom = clampInt(o.MinZoom, 0, MaxSupportedZoom)
	o.MaxZoom = clampInt(o.MaxZoom, 0, MaxSupportedZoom)
	if o.MinZoom > o.MaxZoom {
		return o, fmt.Errorf("min zoom %d is greater than max zoom %d", o.MinZoom, o.MaxZoom)
	}
	return o, nil
}

// radiusAt переводит радиус из пикселей в единицы единичной меркаторской проекции
func (o Options) radiusAt(zoom int) float64 {
	return o.Radius / (o.Extent * float64(int64(1)<<uint(zoom)))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
