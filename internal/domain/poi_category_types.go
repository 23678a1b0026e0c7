package domain

// Category определяет тип точки интереса и выбор иконки
type Category string

// POI Category constants
const (
	CategoryCafe       Category = "cafe"
	CategoryRestaurant Category = "restaurant"
	CategoryBar        Category = "bar"
	CategoryBakery     Category = "bakery"
	CategoryGrocery    Category = "grocery"
	CategoryHotel      Category = "hotel"
	CategoryAttraction Category = "attraction"
)

// ValidCategories returns list of known categories
func ValidCategories() []Category {
	return []Category{
		CategoryCafe,
		CategoryRestaurant,
		CategoryBar,
		CategoryBakery,
		CategoryGrocery,
		CategoryHotel,
		CategoryAttraction,
	}
}

// IsKnown checks if category is one of the known values.
// Unknown categories are still accepted in datasets.
func (c Category) IsKnown() bool {
	for _, known := range ValidCategories() {
		if known == c {
			return true
		}
	}
	return false
}
