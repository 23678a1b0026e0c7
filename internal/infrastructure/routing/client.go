package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/poi-cluster-service/internal/config"
	"github.com/poi-cluster-service/internal/domain"
	"github.com/poi-cluster-service/internal/domain/repository"
	"github.com/poi-cluster-service/internal/pkg/utils"
)

// MaxWaypoints - лимит точек маршрута в Directions API
const MaxWaypoints = 25

type client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	profile     string
	logger      *zap.Logger
}

// directionsResponse - ответ Directions API с геометрией в GeoJSON
type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Routes  []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// NewClient создает клиент внешнего прокси маршрутизации
func NewClient(cfg *config.RoutingConfig, logger *zap.Logger) repository.RoutingRepository {
	return &client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		profile:     cfg.Profile,
		logger:      logger,
	}
}

// GetRoute возвращает маршрут через waypoints (lon, lat)
func (c *client) GetRoute(ctx context.Context, waypoints []orb.Point) (*domain.RouteSegment, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route needs at least 2 waypoints, got %d", len(waypoints))
	}
	if len(waypoints) > MaxWaypoints {
		return nil, fmt.Errorf("waypoints exceed routing limit of %d points", MaxWaypoints)
	}

	coordinates := make([]string, len(waypoints))
	for i, p := range waypoints {
		coordinates[i] = fmt.Sprintf("%f,%f", p.Lon(), p.Lat())
	}

	query := url.Values{}
	query.Set("geometries", "geojson")
	query.Set("overview", "full")
	if c.accessToken != "" {
		query.Set("access_token", c.accessToken)
	}

	reqURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s?%s",
		c.baseURL,
		c.profile,
		strings.Join(coordinates, ";"),
		query.Encode(),
	)

	c.logger.Debug("Calling Directions API",
		zap.String("profile", c.profile),
		zap.Int("waypoints", len(waypoints)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		c.logger.Error("Failed to create request", zap.Error(err))
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Directions API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("routing API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var directions directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&directions); err != nil {
		c.logger.Error("Failed to decode response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if directions.Code != "Ok" {
		c.logger.Error("Directions API returned non-OK code",
			zap.String("code", directions.Code),
			zap.String("message", directions.Message))
		return nil, fmt.Errorf("routing API returned code: %s", directions.Code)
	}
	if len(directions.Routes) == 0 || directions.Routes[0].Geometry == nil {
		return nil, fmt.Errorf("routing API returned no routes")
	}

	best := directions.Routes[0]
	line, ok := best.Geometry.Geometry().(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("unexpected route geometry %s", best.Geometry.Type)
	}

	distance := best.Distance
	if distance <= 0 {
		distance = utils.LineLength(line)
	}

	route := &domain.RouteSegment{
		ID:              uuid.NewString(),
		Profile:         c.profile,
		Geometry:        line,
		DistanceMeters:  distance,
		DurationSeconds: best.Duration,
	}

	c.logger.Debug("Directions API call successful",
		zap.String("route_id", route.ID),
		zap.Int("vertices", len(line)),
		zap.Float64("distance_m", distance))

	return route, nil
}
