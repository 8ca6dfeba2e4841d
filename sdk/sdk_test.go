package apiservice

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/config"
	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/cineverse/apiservice-sdk-go/sdk/gateway"
	"github.com/cineverse/apiservice-sdk-go/sdk/host"
	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.Config {
	c := config.Defaults()
	c.BaseURL = baseURL
	c.SecretEnv = "APISERVICE_SDK_TEST_SECRET"
	return c
}

func TestNewSDK_Bootstraps(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"page":1,"results":[{"id":1,"title":"A"}]}`)
	}))
	defer srv.Close()

	reg := host.NewRegistry()
	sdk, err := NewSDK(Params{Config: testConfig(srv.URL), Container: reg})
	require.NoError(t, err)

	client, err := host.Lookup[*http.Client](reg, gateway.HTTPClientService)
	require.NoError(t, err)
	assert.Same(t, sdk.Gateway.HTTPClient(), client)

	page, err := sdk.Movies.Popular(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "A", page.Results[0].Title)
}

func TestNewSDK_InvalidConfig(t *testing.T) {
	_, err := NewSDK(Params{Config: config.Config{}})
	assert.Error(t, err)
}

func TestBootstrap_Twice(t *testing.T) {
	gw, err := gateway.New()
	require.NoError(t, err)
	require.NoError(t, Bootstrap(gw, host.NewRegistry()))
	assert.ErrorIs(t, Bootstrap(gw, host.NewRegistry()), constants.ErrAlreadyInitialized)
}

func TestNewSDK_RetryAndMetrics(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryMax = 1
	cfg.Metrics = true
	reg := prometheus.NewRegistry()
	sdk, err := NewSDK(Params{Config: cfg, Registerer: reg})
	require.NoError(t, err)

	resp, err := sdk.Gateway.Get(context.Background(), "/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(2), calls.Load())

	// only the outcome the caller saw is counted
	expected := `
# HELP apiservice_client_requests_total Requests that completed the interceptor chain.
# TYPE apiservice_client_requests_total counter
apiservice_client_requests_total{method="GET",status="200"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "apiservice_client_requests_total"))
}

func TestNewSDK_LogHTTP(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	cfg := testConfig(srv.URL)
	cfg.LogHTTP = true
	sdk, err := NewSDK(Params{Config: cfg, Logger: &logger})
	require.NoError(t, err)

	_, err = sdk.Gateway.Get(context.Background(), "/movie/1")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"-->"`)
	assert.Contains(t, out, `"message":"<--"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, "/movie/1")
	assert.NotContains(t, out, "s3cret")
}

func TestNewSDK_LogHTTPDisabled(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	sdk, err := NewSDK(Params{Config: testConfig(srv.URL), Logger: &logger})
	require.NoError(t, err)

	_, err = sdk.Gateway.Get(context.Background(), "/movie/1")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), `"message":"-->"`)
}

func TestNewSDK_BreakerOpensOnServerErrors(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BreakerThreshold = 2
	cfg.BreakerCooldown = time.Minute
	sdk, err := NewSDK(Params{Config: cfg})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = sdk.Gateway.Get(context.Background(), "/x")
		assert.Equal(t, http.StatusInternalServerError, gateway.StatusCode(err))
	}
	_, err = sdk.Gateway.Get(context.Background(), "/x")
	assert.ErrorIs(t, err, constants.ErrCircuitBreakerOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewSDK_ErrorDetectorReachesRetry(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("X-Pending", "1")
		}
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.RetryMax = 2
	detector := interceptors.ErrorDetectorFunc(func(data interceptors.InterceptorData) error {
		if data.Response.Header.Get("X-Pending") != "" {
			return &interceptors.HTTPStatusError{StatusCode: http.StatusServiceUnavailable, Status: "pending"}
		}
		return nil
	})
	sdk, err := NewSDK(Params{Config: cfg, ErrorDetector: detector})
	require.NoError(t, err)

	resp, err := sdk.Gateway.Get(context.Background(), "/x")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestWithInterceptorAndLanguage(t *testing.T) {
	t.Setenv("APISERVICE_SDK_TEST_SECRET", "s3cret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "de-DE", r.URL.Query().Get("language"))
		assert.Equal(t, "yes", r.Header.Get("X-Tagged"))
		_, _ = io.WriteString(w, `{"page":1}`)
	}))
	defer srv.Close()

	sdk, err := NewSDK(Params{Config: testConfig(srv.URL)},
		WithLanguage("de-DE"),
		WithInterceptor(interceptors.Funcs{OnRequest: func(r *http.Request) (*http.Request, error) {
			r.Header.Set("X-Tagged", "yes")
			return r, nil
		}}),
	)
	require.NoError(t, err)

	_, err = sdk.Movies.TopRated(context.Background(), 1)
	require.NoError(t, err)
}
