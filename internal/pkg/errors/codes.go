package errors

import "net/http"

var (
	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRadius = New(
		"INVALID_RADIUS",
		"Invalid radius value",
		http.StatusBadRequest,
	)

	ErrInvalidZoom = New(
		"INVALID_ZOOM",
		"Invalid zoom level",
		http.StatusBadRequest,
	)

	ErrInvalidBBox = New(
		"INVALID_BBOX",
		"Invalid bounding box",
		http.StatusBadRequest,
	)

	ErrInvalidClusterID = New(
		"INVALID_CLUSTER_ID",
		"Invalid or stale cluster ID",
		http.StatusNotFound,
	)

	ErrInvalidFeature = New(
		"INVALID_FEATURE",
		"Unsupported feature",
		http.StatusBadRequest,
	)

	ErrDatasetMissing = New(
		"DATASET_NOT_LOADED",
		"Point dataset is not loaded",
		http.StatusServiceUnavailable,
	)

	ErrRoutingFailed = New(
		"ROUTING_FAILED",
		"Routing service request failed",
		http.StatusBadGateway,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
