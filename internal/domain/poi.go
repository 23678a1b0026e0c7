package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Point представляет точку интереса на карте.
// Name уникален в пределах набора данных и используется как ключ.
type Point struct {
	Coordinates orb.Point `json:"coordinates" yaml:"coordinates"`
	Name        string    `json:"name" yaml:"name"`
	Address     string    `json:"address,omitempty" yaml:"address"`
	Note        string    `json:"note,omitempty" yaml:"note"`
	Category    Category  `json:"category" yaml:"category"`
}

// Lon возвращает долготу точки
func (p Point) Lon() float64 {
	return p.Coordinates.Lon()
}

// Lat возвращает широту точки
func (p Point) Lat() float64 {
	return p.Coordinates.Lat()
}

// PointError описывает отклонённую точку набора данных
type PointError struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func (e PointError) Error() string {
	return fmt.Sprintf("point %d (%q): %s", e.Index, e.Name, e.Reason)
}

// ValidCoordinates проверяет, что координаты конечны и лежат в диапазоне WGS84
func ValidCoordinates(lon, lat float64) bool {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
}

// ValidatePoints возвращает первую найденную ошибку в наборе точек.
// Пустой набор считается валидным.
func ValidatePoints(points []Point) error {
	seen := make(map[string]struct{}, len(points))
	for i, p := range points {
		if reason := checkPoint(p, seen); reason != "" {
			return PointError{Index: i, Name: p.Name, Reason: reason}
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}

// FilterValid отбрасывает невалидные точки и дубликаты имён.
// Порядок оставшихся точек сохраняется.
func FilterValid(points []Point) ([]Point, []PointError) {
	valid := make([]Point, 0, len(points))
	var rejected []PointError

	seen := make(map[string]struct{}, len(points))
	for i, p := range points {
		if reason := checkPoint(p, seen); reason != "" {
			rejected = append(rejected, PointError{Index: i, Name: p.Name, Reason: reason})
			continue
		}
		seen[p.Name] = struct{}{}
		valid = append(valid, p)
	}

	return valid, rejected
}

func checkPoint(p Point, seen map[string]struct{}) string {
	if p.Name == "" {
		return "empty name"
	}
	if _, dup := seen[p.Name]; dup {
		return "duplicate name"
	}
	if !ValidCoordinates(p.Lon(), p.Lat()) {
		return "invalid coordinates"
	}
	return ""
}
