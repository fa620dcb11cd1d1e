package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the backend, with the message pulled
// out of the error body when one is present.
type APIError struct {
	StatusCode int
	Message    string

	// Body is the raw error payload, kept so callers can decode
	// endpoint-specific detail shapes (stock conflicts, field errors).
	Body []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// IsUnauthorized reports whether err is an HTTP 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// errorBody covers the two error shapes the backend uses.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Body: body}

	var decoded errorBody
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Error != "" {
			apiErr.Message = decoded.Error
		} else {
			apiErr.Message = decoded.Message
		}
	}
	return apiErr
}
