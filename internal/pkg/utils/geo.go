package utils

import (
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// EarthRadiusMeters - средний радиус Земли
const EarthRadiusMeters = 6371008.8

// HaversineDistance вычисляет расстояние между двумя точками в метрах
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// PointDistance - расстояние между двумя orb.Point (lon, lat) в метрах
func PointDistance(a, b orb.Point) float64 {
	return HaversineDistance(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// LineLength - длина ломаной в метрах
func LineLength(ls orb.LineString) float64 {
	var total float64
	for i := 1; i < len(ls); i++ {
		total += PointDistance(ls[i-1], ls[i])
	}
	return total
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateBBox проверяет bbox [w,s,e,n]. Допускается west > east (пересечение антимеридиана).
func ValidateBBox(west, south, east, north float64) bool {
	if !ValidateCoordinates(south, west) || !ValidateCoordinates(north, east) {
		return false
	}
	return south <= north
}

// ValidateRadius проверяет валидность радиуса поиска в метрах (1 м - 100 км)
func ValidateRadius(radiusMeters float64) bool {
	return radiusMeters >= 1 && radiusMeters <= 100000
}
