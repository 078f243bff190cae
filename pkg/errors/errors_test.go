package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnauthorized,
		ErrForbidden, ErrInternal, ErrConflict, ErrServiceUnavail, ErrUpstream,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j])
		}
	}
}

func TestAppError_ErrorString(t *testing.T) {
	withCause := &AppError{Code: "INTERNAL_ERROR", Message: "store failed", Err: fmt.Errorf("redis down")}
	assert.Equal(t, "INTERNAL_ERROR: store failed: redis down", withCause.Error())

	bare := &AppError{Code: "NOT_FOUND", Message: "product not found"}
	assert.Equal(t, "NOT_FOUND: product not found", bare.Error())
}

func TestAppError_WithCode_KeepsStatusAndSentinel(t *testing.T) {
	base := Conflict("checkout already in progress")
	coded := base.WithCode("CHECKOUT_IN_PROGRESS")

	assert.Equal(t, "CHECKOUT_IN_PROGRESS", coded.Code)
	assert.Equal(t, "CONFLICT", base.Code, "original must not change")
	assert.Equal(t, http.StatusConflict, coded.Status)
	assert.ErrorIs(t, coded, ErrConflict)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("product", "7"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"invalid input", InvalidInput("cart is empty"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unauthorized", Unauthorized("login required"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("admins only"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"conflict", Conflict("busy"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"unavailable", ServiceUnavailable("db down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
		{"upstream", Upstream("order backend failed", errors.New("timeout")), "UPSTREAM_ERROR", http.StatusBadGateway, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "product with id 42 not found", NotFound("product", "42").Message)
}

func TestUpstream_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("order backend failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUpstream)

	assert.ErrorIs(t, Upstream("no cause", nil), ErrUpstream)
}

func TestInternal(t *testing.T) {
	cause := errors.New("boom")
	err := Internal(cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus_WrappedSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("load cart: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("submit: %w", ErrConflict), http.StatusConflict},
		{fmt.Errorf("create: %w", ErrAlreadyExists), http.StatusConflict},
		{fmt.Errorf("parse: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("token: %w", ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("guard: %w", ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("ping: %w", ErrServiceUnavail), http.StatusServiceUnavailable},
		{fmt.Errorf("post: %w", ErrUpstream), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("outer: %w", NotFound("cart", "s1")), http.StatusNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), tt.err.Error())
	}
}
