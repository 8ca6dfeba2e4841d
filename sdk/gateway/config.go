package gateway

import (
	"net/http"
	"net/url"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
	"github.com/rs/zerolog"
)

// DefaultHeaders are sent with every request unless the call overrides them.
func DefaultHeaders() http.Header {
	return http.Header{
		"Accept":       {"application/json"},
		"Content-Type": {"application/json; charset=utf-8"},
	}
}

// ClientConfig is fixed when the Gateway is created. Accessors return copies.
type ClientConfig struct {
	baseURL string
	headers http.Header
}

func (c ClientConfig) BaseURL() string {
	return c.baseURL
}

func (c ClientConfig) Headers() http.Header {
	return c.headers.Clone()
}

// Option configures a Gateway during New.
type Option func(*Gateway) error

// WithBaseURL sets the prefix for relative request URLs. An empty base means
// every request must use an absolute URL.
func WithBaseURL(baseURL string) Option {
	return func(g *Gateway) error {
		if baseURL != "" {
			u, err := url.Parse(baseURL)
			if err != nil {
				return err
			}
			if !u.IsAbs() {
				return &url.Error{Op: "parse", URL: baseURL, Err: errNotAbsolute}
			}
		}
		g.config.baseURL = baseURL
		return nil
	}
}

// WithHeader adds or replaces a default header.
func WithHeader(key, value string) Option {
	return func(g *Gateway) error {
		g.config.headers.Set(key, value)
		return nil
	}
}

// WithTransport sets the round tripper beneath the interceptor chain.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) error {
		g.base = rt
		return nil
	}
}

// WithTokenSource replaces the environment token source used by SetRequestInterceptor.
func WithTokenSource(tokens interceptors.TokenSource) Option {
	return func(g *Gateway) error {
		g.tokens = tokens
		return nil
	}
}

// WithErrorDetector replaces the status check that turns responses into errors.
// A nil detector keeps the default.
func WithErrorDetector(detector interceptors.ErrorDetector) Option {
	return func(g *Gateway) error {
		g.detector = detector
		return nil
	}
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithHTTPTimeout bounds every request. Without it the transport defaults apply.
func WithHTTPTimeout(d time.Duration) Option {
	return func(g *Gateway) error {
		if d < 0 {
			return errNegativeTimeout
		}
		g.timeout = d
		return nil
	}
}
