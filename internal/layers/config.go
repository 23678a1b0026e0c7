package layers

import "github.com/poi-cluster-service/internal/config"

// Config - пороги зума и параметры отрисовки.
// ClusterMaxZoom (T1) и DetailMinZoom (T2) делят шкалу зума на три режима.
type Config struct {
	ClusterMaxZoom    float64
	DetailMinZoom     float64
	IconMinZoom       float64
	LabelMinZoom      float64
	ProxyRadiusPixels float64
	MaxClusterScale   float64
}

// DefaultConfig returns thresholds used when nothing is configured
func DefaultConfig() Config {
	return Config{
		ClusterMaxZoom:    13,
		DetailMinZoom:     15,
		IconMinZoom:       13,
		LabelMinZoom:      14,
		ProxyRadiusPixels: 18,
		MaxClusterScale:   2.5,
	}
}

// FromConfig переносит настройки приложения, незаданные значения берутся по умолчанию
func FromConfig(cfg config.LayersConfig) Config {
	out := DefaultConfig()
	if cfg.ClusterMaxZoom > 0 {
		out.ClusterMaxZoom = cfg.ClusterMaxZoom
	}
	if cfg.DetailMinZoom > 0 {
		out.DetailMinZoom = cfg.DetailMinZoom
	}
	if cfg.IconMinZoom > 0 {
		out.IconMinZoom = cfg.IconMinZoom
	}
	if cfg.LabelMinZoom > 0 {
		out.LabelMinZoom = cfg.LabelMinZoom
	}
	if cfg.ProxyRadiusPixels > 0 {
		out.ProxyRadiusPixels = cfg.ProxyRadiusPixels
	}
	if cfg.MaxClusterScale >= 1 {
		out.MaxClusterScale = cfg.MaxClusterScale
	}
	if out.DetailMinZoom < out.ClusterMaxZoom {
		out.DetailMinZoom = out.ClusterMaxZoom
	}
	return out
}
