package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structured(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_Structured(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
		code     string
	}{
		{"not found", http.StatusNotFound, apperrors.ErrNotFound, "NOT_FOUND"},
		{"bad request", http.StatusBadRequest, apperrors.ErrInvalidInput, "INVALID_INPUT"},
		{"conflict", http.StatusConflict, apperrors.ErrConflict, "CONFLICT"},
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrUnauthorized, "UNAUTHORIZED"},
		{"forbidden", http.StatusForbidden, apperrors.ErrForbidden, "FORBIDDEN"},
		{"unavailable", http.StatusServiceUnavailable, apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE"},
		{"server error", http.StatusInternalServerError, apperrors.ErrUpstream, "UPSTREAM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(fakeResponse(tt.status, structured("X", "boom")), "orders")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel))

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusBadGateway, "<html>bad gateway</html>"), "orders")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
	assert.Contains(t, err.Error(), "bad gateway")
}

func TestParseResponseError_NullErrorField(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusInternalServerError, `{"error":null}`), "orders")
	assert.True(t, errors.Is(err, apperrors.ErrUpstream))
}

func TestParseResponseError_OtherStatusKeepsCode(t *testing.T) {
	err := ParseResponseError(fakeResponse(http.StatusTooManyRequests, structured("RATE_LIMITED", "slow down")), "orders")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "orders: slow down", appErr.Message)
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
