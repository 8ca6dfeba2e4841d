package apiservice

import (
	"net/http"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/config"
	"github.com/cineverse/apiservice-sdk-go/sdk/core/movies"
	"github.com/cineverse/apiservice-sdk-go/sdk/gateway"
	"github.com/cineverse/apiservice-sdk-go/sdk/host"
	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	retryBaseBackoff = 200 * time.Millisecond
	retryMaxBackoff  = 5 * time.Second

	breakerName = "apiservice"
)

type SDK struct {
	Gateway   *gateway.Gateway
	Movies    *movies.Handler
	Container host.Container
}

// Params carries what NewSDK needs besides the loaded configuration.
type Params struct {
	Config config.Config
	// Container receives the gateway during Init. A fresh registry is used when nil.
	Container host.Container
	Logger    *zerolog.Logger
	// Transport replaces http.DefaultTransport beneath the interceptor chain.
	Transport http.RoundTripper
	// ErrorDetector replaces the status check for the chain and for retries.
	ErrorDetector interceptors.ErrorDetector
	// Registerer receives the client metrics when Config.Metrics is set.
	Registerer prometheus.Registerer
}

type SDKOption func(SDK) SDK

// NewSDK creates the gateway, runs Bootstrap and attaches the optional
// interceptors enabled in the configuration.
func NewSDK(p Params, opts ...SDKOption) (*SDK, error) {
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	container := p.Container
	if container == nil {
		container = host.NewRegistry()
	}

	gwOpts := []gateway.Option{
		gateway.WithBaseURL(p.Config.BaseURL),
		gateway.WithTokenSource(interceptors.NewEnvTokenSource(p.Config.SecretEnv)),
		gateway.WithHTTPTimeout(p.Config.Timeout),
	}
	if p.Logger != nil {
		gwOpts = append(gwOpts, gateway.WithLogger(p.Logger))
	}
	if p.Transport != nil {
		gwOpts = append(gwOpts, gateway.WithTransport(p.Transport))
	}
	if p.ErrorDetector != nil {
		gwOpts = append(gwOpts, gateway.WithErrorDetector(p.ErrorDetector))
	}

	gw, err := gateway.New(gwOpts...)
	if err != nil {
		return nil, err
	}
	if err := Bootstrap(gw, container); err != nil {
		return nil, err
	}

	// retry runs before the observers so they see the outcome the caller gets
	if p.Config.RetryMax > 0 {
		gw.Use(interceptors.NewRetryInterceptor(
			gw.Transport(),
			interceptors.NewRetryInterceptor_ExponentialBackoff(retryBaseBackoff, retryMaxBackoff),
			interceptors.NewRetryInterceptor_RetryDeciderTransient(p.Config.RetryMax),
		).WithErrorDetector(gw.ErrorDetector()))
	}
	if p.Config.BreakerThreshold > 0 {
		gw.Use(interceptors.NewCircuitBreakerInterceptor(
			interceptors.NewServerErrorBreaker(breakerName, p.Config.BreakerThreshold, p.Config.BreakerCooldown),
			true,
		))
	}
	if p.Config.LogHTTP {
		gw.Use(interceptors.NewLogger(interceptors.LoggerOptions{
			Logger:       p.Logger,
			LogBasicInfo: true,
			LogHeaders:   true,
		}))
	}
	if p.Config.Metrics {
		reg := p.Registerer
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		gw.Use(interceptors.NewMetricsInterceptor(reg))
	}

	sdk := SDK{
		Gateway:   gw,
		Movies:    movies.NewHandler(gw),
		Container: container,
	}
	for _, opt := range opts {
		sdk = opt(sdk)
	}
	return &sdk, nil
}

// Bootstrap runs the startup sequence: bind into the container, then install the
// request interceptor, then the response interceptor.
func Bootstrap(gw *gateway.Gateway, container host.Container) error {
	if err := gw.Init(container); err != nil {
		return err
	}
	gw.SetRequestInterceptor()
	gw.SetResponseInterceptor()
	return nil
}

func WithInterceptor(ics ...interceptors.Interceptor) SDKOption {
	return func(s SDK) SDK {
		s.Gateway.Use(ics...)
		return s
	}
}

func WithLanguage(language string) SDKOption {
	return func(s SDK) SDK {
		s.Movies = movies.NewHandler(s.Gateway, movies.WithLanguage(language))
		return s
	}
}
