package validator

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poi-cluster-service/internal/pkg/errors"
)

type viewport struct {
	Zoom float64 `validate:"min=0,max=24"`
}

type request struct {
	Name     string `validate:"required"`
	Viewport viewport
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(request{Name: "a", Viewport: viewport{Zoom: 3}}))

	err := ValidateRequest(request{Viewport: viewport{Zoom: 30}})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, "INVALID_REQUEST", appErr.Code)
	assert.Equal(t, "required", appErr.Details["Name"])
	assert.Equal(t, "max", appErr.Details["Viewport.Zoom"])

	// общая переменная ошибки не изменилась
	assert.Empty(t, errors.ErrInvalidRequest.Details)
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "Viewport.Zoom", fieldPath("LayersRequest.Viewport.Zoom"))
	assert.Equal(t, "Zoom", fieldPath("Zoom"))
}
