package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
)

// Format - формат файла набора данных
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

type pointRepository struct {
	path   string
	logger *zap.Logger
}

// NewPointRepository читает набор точек из локального файла.
// Формат определяется по расширению: .geojson, .json, .yaml/.yml.
func NewPointRepository(path string, logger *zap.Logger) repository.PointRepository {
	return &pointRepository{
		path:   path,
		logger: logger,
	}
}

func (r *pointRepository) LoadAll(ctx context.Context) ([]domain.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := FormatFromPath(r.path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", r.path, err)
	}

	points, err := Parse(data, format)
	if err != nil {
		r.logger.Error("Failed to parse dataset", zap.String("path", r.path), zap.Error(err))
		return nil, err
	}

	valid, rejected := domain.FilterValid(points)
	for _, rej := range rejected {
		r.logger.Warn("Skipping invalid point",
			zap.String("path", r.path),
			zap.Int("index", rej.Index),
			zap.String("name", rej.Name),
			zap.String("reason", rej.Reason))
	}

	r.logger.Info("Dataset loaded",
		zap.String("path", r.path),
		zap.Int("points", len(valid)),
		zap.Int("rejected", len(rejected)))

	return valid, nil
}

// FormatFromPath определяет формат по расширению файла
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson":
		return FormatGeoJSON, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported dataset format: %q", filepath.Ext(path))
	}
}

// Parse разбирает набор точек без проверки валидности.
// FormatJSON принимает и массив точек, и GeoJSON FeatureCollection.
func Parse(data []byte, format Format) ([]domain.Point, error) {
	switch format {
	case FormatGeoJSON:
		return parseGeoJSON(data)
	case FormatJSON:
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			var points []domain.Point
			if err := json.Unmarshal(trimmed, &points); err != nil {
				return nil, fmt.Errorf("failed to decode points: %w", err)
			}
			return points, nil
		}
		return parseGeoJSON(data)
	case FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %q", format)
	}
}

func parseGeoJSON(data []byte) ([]domain.Point, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode feature collection: %w", err)
	}

	points := make([]domain.Point, 0, len(fc.Features))
	for i, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected Point geometry, got %T", i, f.Geometry)
		}
		points = append(points, domain.Point{
			Coordinates: p,
			Name:        f.Properties.MustString("name", ""),
			Address:     f.Properties.MustString("address", ""),
			Note:        f.Properties.MustString("note", ""),
			Category:    domain.Category(f.Properties.MustString("category", "")),
		})
	}
	return points, nil
}

type yamlDataset struct {
	Points []domain.Point `yaml:"points"`
}

func parseYAML(data []byte) ([]domain.Point, error) {
	var ds yamlDataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to decode yaml dataset: %w", err)
	}
	return ds.Points, nil
}

// ToFeatureCollection - обратное преобразование для выгрузки в GeoJSON
func ToFeatureCollection(points []domain.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(p.Coordinates)
		f.Properties["name"] = p.Name
		f.Properties["category"] = string(p.Category)
		if p.Address != "" {
			f.Properties["address"] = p.Address
		}
		if p.Note != "" {
			f.Properties["note"] = p.Note
		}
		fc.Append(f)
	}
	return fc
}
