package constants

import "errors"

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	ErrNotInitialized     = errors.New("gateway is not initialized")
	ErrAlreadyInitialized = errors.New("gateway is already initialized")
	ErrMissingSecret      = errors.New("authorization secret is not set")
	ErrRelativeURL        = errors.New("relative url requires a base url")
)
