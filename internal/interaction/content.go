package interaction

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/layers"
)

// ZoomInHint - подсказка для кластера в тултипе
const ZoomInHint = "Zoom in to see individual places"

// Tooltip - содержимое подсказки при наведении
type Tooltip struct {
	Kind      domain.FeatureKind `json:"kind"`
	FeatureID string             `json:"feature_id"`
	Title     string             `json:"title"`
	Subtitle  string             `json:"subtitle,omitempty"`
	Hint      string             `json:"hint,omitempty"`

	Count         int `json:"count,omitempty"`
	ExpansionZoom int `json:"expansion_zoom,omitempty"`
}

// Field - строка карточки
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Popup - карточка по клику; живёт до Dismiss или удаления объекта
type Popup struct {
	Kind        domain.FeatureKind `json:"kind"`
	FeatureID   string             `json:"feature_id"`
	Title       string             `json:"title"`
	Icon        string             `json:"icon,omitempty"`
	Coordinates orb.Point          `json:"coordinates"`
	Fields      []Field            `json:"fields,omitempty"`
}

// TooltipFor строит подсказку по типу объекта. nil на входе - nil на выходе.
func TooltipFor(f domain.Feature) *Tooltip {
	switch f := f.(type) {
	case domain.PointFeature:
		return pointTooltip(f.Point)
	case *domain.PointFeature:
		if f == nil {
			return nil
		}
		return pointTooltip(f.Point)
	case domain.ClusterFeature:
		return clusterTooltip(f)
	case *domain.ClusterFeature:
		if f == nil {
			return nil
		}
		return clusterTooltip(*f)
	case domain.RouteSegment:
		return &Tooltip{
			Kind:      f.Kind(),
			FeatureID: f.FeatureID(),
			Title:     "Route",
			Subtitle:  routeSummary(f),
		}
	case domain.SearchRing:
		return &Tooltip{
			Kind:      f.Kind(),
			FeatureID: f.FeatureID(),
			Title:     fmt.Sprintf("%d places within %s", f.MatchCount, formatDistance(f.RadiusMeters)),
			Count:     f.MatchCount,
		}
	default:
		return nil
	}
}

func pointTooltip(p domain.Point) *Tooltip {
	return &Tooltip{
		Kind:      domain.FeatureKindPoint,
		FeatureID: domain.PointFeature{Point: p}.FeatureID(),
		Title:     p.Name,
		Subtitle:  string(p.Category),
	}
}

// clusterTooltip: только агрегаты, без перечисления точек
func clusterTooltip(c domain.ClusterFeature) *Tooltip {
	if c.RendersAsPoint() && c.Point != nil {
		return pointTooltip(*c.Point)
	}
	return &Tooltip{
		Kind:          domain.FeatureKindCluster,
		FeatureID:     c.FeatureID(),
		Title:         fmt.Sprintf("%d places", c.PointCount),
		Hint:          ZoomInHint,
		Count:         c.PointCount,
		ExpansionZoom: c.ExpansionZoom,
	}
}

// PopupFor строит карточку по типу объекта. nil на входе - nil на выходе.
func PopupFor(f domain.Feature) *Popup {
	switch f := f.(type) {
	case domain.PointFeature:
		return pointPopup(f.Point)
	case *domain.PointFeature:
		if f == nil {
			return nil
		}
		return pointPopup(f.Point)
	case domain.ClusterFeature:
		return clusterPopup(f)
	case *domain.ClusterFeature:
		if f == nil {
			return nil
		}
		return clusterPopup(*f)
	case domain.RouteSegment:
		popup := &Popup{
			Kind:      f.Kind(),
			FeatureID: f.FeatureID(),
			Title:     "Route",
			Fields: []Field{
				{Label: "Distance", Value: formatDistance(f.DistanceMeters)},
				{Label: "Duration", Value: formatDuration(f.DurationSeconds)},
			},
		}
		if f.Profile != "" {
			popup.Fields = append(popup.Fields, Field{Label: "Profile", Value: f.Profile})
		}
		if len(f.Geometry) > 0 {
			popup.Coordinates = f.Geometry[0]
		}
		return popup
	case domain.SearchRing:
		return &Popup{
			Kind:        f.Kind(),
			FeatureID:   f.FeatureID(),
			Title:       "Search area",
			Coordinates: f.Center,
			Fields: []Field{
				{Label: "Radius", Value: formatDistance(f.RadiusMeters)},
				{Label: "Places", Value: fmt.Sprintf("%d", f.MatchCount)},
			},
		}
	default:
		return nil
	}
}

func pointPopup(p domain.Point) *Popup {
	popup := &Popup{
		Kind:        domain.FeatureKindPoint,
		FeatureID:   domain.PointFeature{Point: p}.FeatureID(),
		Title:       p.Name,
		Icon:        layers.IconFor(p.Category),
		Coordinates: p.Coordinates,
	}
	if p.Category != "" {
		popup.Fields = append(popup.Fields, Field{Label: "Category", Value: string(p.Category)})
	}
	if p.Address != "" {
		popup.Fields = append(popup.Fields, Field{Label: "Address", Value: p.Address})
	}
	if strings.TrimSpace(p.Note) != "" {
		popup.Fields = append(popup.Fields, Field{Label: "Note", Value: p.Note})
	}
	return popup
}

func clusterPopup(c domain.ClusterFeature) *Popup {
	if c.RendersAsPoint() && c.Point != nil {
		return pointPopup(*c.Point)
	}
	return &Popup{
		Kind:        domain.FeatureKindCluster,
		FeatureID:   c.FeatureID(),
		Title:       fmt.Sprintf("%d places", c.PointCount),
		Icon:        layers.ClusterIcon(c.PointCount),
		Coordinates: c.Coordinates,
		Fields: []Field{
			{Label: "Zoom to expand", Value: fmt.Sprintf("%d", c.ExpansionZoom)},
		},
	}
}

func routeSummary(r domain.RouteSegment) string {
	return formatDistance(r.DistanceMeters) + ", " + formatDuration(r.DurationSeconds)
}

func formatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%.0f m", meters)
}

func formatDuration(seconds float64) string {
	minutes := int(seconds/60 + 0.5)
	if minutes >= 60 {
		return fmt.Sprintf("%d h %d min", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%d min", minutes)
}
