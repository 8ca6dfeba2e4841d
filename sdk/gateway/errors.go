package gateway

import (
	"errors"

	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
)

type (
	TransportError  = interceptors.TransportError
	HTTPStatusError = interceptors.HTTPStatusError
)

var (
	errNotAbsolute     = errors.New("base url must be absolute")
	errNegativeTimeout = errors.New("http timeout must be >= 0")
)

// StatusCode returns the status carried by an *HTTPStatusError in err's chain, or 0.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
