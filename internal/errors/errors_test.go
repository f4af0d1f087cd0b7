package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs_MatchesByCode(t *testing.T) {
	err := NotFound("rating not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestErrorIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("delete rating: %w", Upstream("recommender unreachable"))
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeValidation, http.StatusBadRequest},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeUpstream, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.HTTPStatus(), string(tt.code))
	}
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := ErrUpstream.WithCause(cause)

	require.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, cause, Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestValidationWithDetails(t *testing.T) {
	err := ValidationWithDetails("validation failed", map[string]string{"rating": "must be at most 10"})

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.NotNil(t, domainErr.Details)
}
