// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the model API.
type APIError struct {
	StatusCode int

	// Type is the API's error classification, e.g. "overloaded_error".
	Type string

	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("claude: API error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
	}
	return fmt.Sprintf("claude: API error (status %d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether retrying the whole run later may succeed:
// rate limiting and server-side failures.
func (e *APIError) IsTransient() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= 500
}
