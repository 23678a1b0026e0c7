package domain

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// TileSize - размер тайла в пикселях (512 как в Mapbox GL / MapLibre)
	TileSize = 512

	// MaxMercatorLat - предел широты web-mercator
	MaxMercatorLat = 85.0511287798066

	defaultViewportWidth  = 1024
	defaultViewportHeight = 768
)

// ViewportState - состояние видимой области карты.
// Единственный источник истины для композиции слоёв и пересчёта скрытых точек.
type ViewportState struct {
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Zoom      float64 `json:"zoom" validate:"min=0,max=24"`
	Width     int     `json:"width,omitempty" validate:"omitempty,min=1,max=16384"`
	Height    int     `json:"height,omitempty" validate:"omitempty,min=1,max=16384"`
}

// ZoomTier возвращает целочисленный уровень зума, на котором работает кластеризация
func (v ViewportState) ZoomTier() int {
	return int(math.Floor(v.Zoom))
}

// Size возвращает размер экрана с учётом значений по умолчанию
func (v ViewportState) Size() (int, int) {
	w, h := v.Width, v.Height
	if w <= 0 {
		w = defaultViewportWidth
	}
	if h <= 0 {
		h = defaultViewportHeight
	}
	return w, h
}

// Bounds вычисляет bbox [w,s,e,n] видимой области по центру, зуму и размеру экрана.
// Если экран шире мира, долгота покрывает [-180,180].
func (v ViewportState) Bounds() orb.Bound {
	width, height := v.Size()
	worldSize := TileSize * math.Pow(2, v.Zoom)

	cx, cy := lonToPixel(v.Longitude, worldSize), latToPixel(v.Latitude, worldSize)
	halfW, halfH := float64(width)/2, float64(height)/2

	west, east := -180.0, 180.0
	if float64(width) < worldSize {
		west = pixelToLon(cx-halfW, worldSize)
		east = pixelToLon(cx+halfW, worldSize)
	}

	north := pixelToLat(math.Max(cy-halfH, 0), worldSize)
	south := pixelToLat(math.Min(cy+halfH, worldSize), worldSize)

	return orb.Bound{
		Min: orb.Point{west, south},
		Max: orb.Point{east, north},
	}
}

// MetersPerPixel - масштаб на широте центра видимой области
func (v ViewportState) MetersPerPixel() float64 {
	const earthCircumference = 40075016.686
	lat := clampLat(v.Latitude) * math.Pi / 180
	return earthCircumference * math.Cos(lat) / (TileSize * math.Pow(2, v.Zoom))
}

func lonToPixel(lon, worldSize float64) float64 {
	return (lon + 180) / 360 * worldSize
}

func latToPixel(lat, worldSize float64) float64 {
	sin := math.Sin(clampLat(lat) * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	return y * worldSize
}

// pixelToLon нормализует долготу в [-180,180]
func pixelToLon(x, worldSize float64) float64 {
	lon := x/worldSize*360 - 180
	for lon < -180 {
		lon += 360
	}
	for lon > 180 {
		lon -= 360
	}
	return lon
}

func pixelToLat(y, worldSize float64) float64 {
	y2 := (180 - y/worldSize*360) * math.Pi / 180
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}

func clampLat(lat float64) float64 {
	return math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))
}

// DatasetStats - статистика по загруженному набору точек
type DatasetStats struct {
	TotalPoints int              `json:"total_points"`
	ByCategory  map[Category]int `json:"by_category"`
	Generation  uint32           `json:"index_generation"`
	Coverage    CoverageStats    `json:"coverage"`
}

// CoverageStats статистика покрытия территории
type CoverageStats struct {
	BBoxMinLat float64 `json:"bbox_min_lat"`
	BBoxMaxLat float64 `json:"bbox_max_lat"`
	BBoxMinLon float64 `json:"bbox_min_lon"`
	BBoxMaxLon float64 `json:"bbox_max_lon"`
	CenterLat  float64 `json:"center_lat"`
	CenterLon  float64 `json:"center_lon"`
}

// NewDatasetStats собирает статистику по точкам
func NewDatasetStats(points []Point, generation uint32) DatasetStats {
	stats := DatasetStats{
		TotalPoints: len(points),
		ByCategory:  make(map[Category]int),
		Generation:  generation,
	}
	if len(points) == 0 {
		return stats
	}

	bound := orb.Bound{Min: points[0].Coordinates, Max: points[0].Coordinates}
	for _, p := range points {
		stats.ByCategory[p.Category]++
		bound = bound.Extend(p.Coordinates)
	}

	center := bound.Center()
	stats.Coverage = CoverageStats{
		BBoxMinLat: bound.Min.Lat(),
		BBoxMaxLat: bound.Max.Lat(),
		BBoxMinLon: bound.Min.Lon(),
		BBoxMaxLon: bound.Max.Lon(),
		CenterLat:  center.Lat(),
		CenterLon:  center.Lon(),
	}
	return stats
}
