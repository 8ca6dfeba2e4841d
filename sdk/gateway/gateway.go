// Package gateway is the shared entry point for outbound HTTP calls. A Gateway is
// created once at startup, bound into the host container with Init, given its
// interceptors, and then shared by every caller for the life of the process.
package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/cineverse/apiservice-sdk-go/sdk/host"
	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// HTTPClientService is the container name of the interceptor-aware *http.Client.
	HTTPClientService = "http.client"
	// GatewayService is the container name of the *Gateway itself.
	GatewayService = "http.gateway"
)

type Gateway struct {
	config    ClientConfig
	base      http.RoundTripper
	detector  interceptors.ErrorDetector
	transport *interceptors.InterceptorTransport
	client    *http.Client
	tokens    interceptors.TokenSource
	logger    *zerolog.Logger
	timeout   time.Duration

	initMu      sync.Mutex
	initialized atomic.Bool
}

func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		config: ClientConfig{headers: DefaultHeaders()},
		base:   http.DefaultTransport,
		tokens: interceptors.NewEnvTokenSource(interceptors.DefaultSecretEnv),
		logger: &log.Logger,
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	g.transport = interceptors.NewInterceptorTransportWithDetector(g.base, g.detector, nil)
	g.client = &http.Client{
		Transport: g.transport,
		Timeout:   g.timeout,
	}
	return g, nil
}

// Init binds the gateway into c. It must be called exactly once, before any
// request. Nothing stays bound in c when Init fails.
func (g *Gateway) Init(c host.Container) error {
	if c == nil {
		return errors.New("nil host container")
	}
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.initialized.Load() {
		return constants.ErrAlreadyInitialized
	}
	if err := c.Provide(HTTPClientService, g.client); err != nil {
		return err
	}
	if err := c.Provide(GatewayService, g); err != nil {
		c.Remove(HTTPClientService)
		return err
	}
	g.initialized.Store(true)
	g.logger.Debug().Str("base_url", g.config.baseURL).Msg("http gateway initialized")
	return nil
}

// SetRequestInterceptor installs the bearer-token authenticator. The token is
// fetched from the token source on every request, so rotations apply immediately.
func (g *Gateway) SetRequestInterceptor() {
	g.transport.AddInterceptors(interceptors.NewAuthenticator(g.tokens, g.logger))
}

// SetResponseInterceptor installs the pass-through response hook. Failures reach
// the caller unchanged.
func (g *Gateway) SetResponseInterceptor() {
	g.transport.AddInterceptors(interceptors.NewPassThrough())
}

// Use appends interceptors to the chain; they run in registration order.
// ErrorDetector returns the detector the chain uses to fail responses.
func (g *Gateway) ErrorDetector() interceptors.ErrorDetector {
	return g.transport.ErrorDetector()
}

func (g *Gateway) Use(ics ...interceptors.Interceptor) {
	g.transport.AddInterceptors(ics...)
}

func (g *Gateway) Config() ClientConfig {
	return ClientConfig{baseURL: g.config.baseURL, headers: g.config.Headers()}
}

// HTTPClient returns the client bound into the host container. Requests sent
// through it run the interceptor chain.
func (g *Gateway) HTTPClient() *http.Client {
	return g.client
}

// Transport returns the round tripper beneath the interceptor chain.
func (g *Gateway) Transport() http.RoundTripper {
	return g.transport.Base()
}

// Request sends d and returns the fully read response. Non-2xx responses fail
// with *HTTPStatusError, network failures with *TransportError, and interceptor
// errors are returned as raised.
func (g *Gateway) Request(ctx context.Context, d Descriptor) (*Response, error) {
	if !g.initialized.Load() {
		return nil, constants.ErrNotInitialized
	}

	req, cancel, err := g.newRequest(ctx, d)
	if err != nil {
		return nil, err
	}
	defer cancel()

	resp, err := g.client.Do(req)
	if err != nil {
		// http.Client wraps whatever the chain returned
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, urlErr.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	return &Response{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Data:       data,
		Request:    resp.Request,
	}, nil
}

func (g *Gateway) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, describe(http.MethodGet, rawURL, nil, opts))
}

func (g *Gateway) Post(ctx context.Context, rawURL string, body any, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, describe(http.MethodPost, rawURL, body, opts))
}

func (g *Gateway) Put(ctx context.Context, rawURL string, body any, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, describe(http.MethodPut, rawURL, body, opts))
}

func (g *Gateway) Delete(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return g.Request(ctx, describe(http.MethodDelete, rawURL, nil, opts))
}

func describe(method, rawURL string, body any, opts []RequestOption) Descriptor {
	d := Descriptor{Method: method, URL: rawURL, Body: body}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}
