package interceptors

import (
	"fmt"
	"net/http"
)

// TransportError reports a request that never produced a response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPStatusError reports a response whose status is outside 2xx.
// Body holds the complete response body.
type HTTPStatusError struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("non-2xx response: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("non-2xx response: %d", e.StatusCode)
}
