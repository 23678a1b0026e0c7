package clustering

import (
	"math"

	"github.com/paulmach/orb"
)

// unitBound - мир в единичной меркаторской проекции
var unitBound = orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}

// lngX переводит долготу в [0..1]
func lngX(lng float64) float64 {
	return lng/360 + 0.5
}

// latY переводит широту в [0..1], север сверху
func latY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		return 0
	}
	if y > 1 {
		return 1
	}
	return y
}

func xLng(x float64) float64 {
	return (x - 0.5) * 360
}

func yLat(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}

func project(p orb.Point) orb.Point {
	return orb.Point{lngX(p.Lon()), latY(p.Lat())}
}

func unproject(p orb.Point) orb.Point {
	return orb.Point{xLng(p[0]), yLat(p[1])}
}
