package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
)

// errorBodyLimit caps how much of a failed response body is read.
const errorBodyLimit = 1 << 20

// errorEnvelope is the error body written by httputil.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusErrors maps the statuses that have a direct AppError counterpart.
var statusErrors = map[int]func(string) *apperrors.AppError{
	http.StatusBadRequest:          apperrors.InvalidInput,
	http.StatusUnprocessableEntity: apperrors.InvalidInput,
	http.StatusUnauthorized:        apperrors.Unauthorized,
	http.StatusForbidden:           apperrors.Forbidden,
	http.StatusConflict:            apperrors.Conflict,
	http.StatusServiceUnavailable:  apperrors.ServiceUnavailable,
}

// ParseResponseError reads and closes the body of a failed response and
// turns it into an AppError attributed to backend. A body that is not an
// error envelope becomes an upstream error quoting the raw body.
func ParseResponseError(resp *http.Response, backend string) error {
	defer func() { _ = resp.Body.Close() }()

	summary := fmt.Sprintf("%s returned status %d", backend, resp.StatusCode)
	raw, err := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	if err != nil {
		return apperrors.Upstream(summary, err)
	}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return apperrors.Upstream(summary, fmt.Errorf("body: %s", raw))
	}
	return classify(resp.StatusCode, env.Error.Code, backend, env.Error.Message)
}

func classify(status int, code, backend, message string) error {
	qualified := backend + ": " + message

	if status == http.StatusNotFound {
		return apperrors.NotFound(backend, message)
	}
	if build, ok := statusErrors[status]; ok {
		return build(qualified)
	}
	if status >= http.StatusInternalServerError {
		return apperrors.Upstream(qualified, fmt.Errorf("status %d code %s", status, code))
	}
	return &apperrors.AppError{Code: code, Message: qualified, Status: status}
}

// IsClientError reports whether status is in the 4xx range.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
