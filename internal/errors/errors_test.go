package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeValidation, http.StatusBadRequest},
		{CodeMissingCredentials, http.StatusServiceUnavailable},
		{CodeUpstream, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("title %s not found", "title-1")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))

	wrapped := fmt.Errorf("lookup: %w", err)
	assert.True(t, Is(wrapped, ErrNotFound))
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Wrap(cause, CodeUpstream, "tmdb request failed")

	assert.Equal(t, "tmdb request failed: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestError_WithDetails(t *testing.T) {
	base := ValidationWithDetails("validation failed", map[string]string{"kind": "is required"})
	withCause := base.WithCause(fmt.Errorf("boom"))

	assert.Equal(t, base.Details, withCause.Details)
	assert.Nil(t, base.Unwrap())
	assert.NotNil(t, withCause.Unwrap())

	replaced := base.WithDetails("other")
	assert.Equal(t, "other", replaced.Details)
	assert.Equal(t, CodeValidation, replaced.Code)
}

func TestMissingCredentials(t *testing.T) {
	err := MissingCredentials("TMDB API key is not configured")
	assert.True(t, Is(err, ErrMissingCredentials))
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}
