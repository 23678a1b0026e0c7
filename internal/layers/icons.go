package layers

import (
	"math"

	"github.com/poi-cluster-service/internal/domain"
)

// FallbackIcon используется для неизвестных категорий
const FallbackIcon = "marker-default"

var categoryIcons = map[domain.Category]string{
	domain.CategoryCafe:       "marker-cafe",
	domain.CategoryRestaurant: "marker-restaurant",
	domain.CategoryBar:        "marker-bar",
	domain.CategoryBakery:     "marker-bakery",
	domain.CategoryGrocery:    "marker-grocery",
	domain.CategoryHotel:      "marker-hotel",
	domain.CategoryAttraction: "marker-attraction",
}

// IconFor возвращает иконку категории
func IconFor(c domain.Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return FallbackIcon
}

// ClusterIcon - дискретная корзина по размеру кластера
func ClusterIcon(count int) string {
	switch {
	case count < 10:
		return "cluster-s"
	case count < 100:
		return "cluster-m"
	case count < 1000:
		return "cluster-l"
	default:
		return "cluster-xl"
	}
}

// ClusterScale: 1 + 0.35*log2(count), не больше maxScale.
// Монотонно растёт и насыщается.
func ClusterScale(count int, maxScale float64) float64 {
	if count <= 1 {
		return 1
	}
	return math.Min(1+0.35*math.Log2(float64(count)), maxScale)
}
