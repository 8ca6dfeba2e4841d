package interceptors

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/patrickmn/go-cache"
)

var errBodyNotReplayable = errors.New("request body cannot be replayed")

type BackoffTimer interface {
	TimeToWait(iteration int) time.Duration
}

type RetryDecider interface {
	// ShouldRetry determines whether a failed HTTP request should be retried.
	// It receives the HTTP response (if any), the error (if any), and retry metadata.
	// Returns:
	//   - bool: true if the request should be retried, false otherwise
	//   - error: non-nil replaces the request's error and stops retrying.
	ShouldRetry(*http.Response, error, RetryInternalData) (bool, error)
}

type RetryInternalData struct {
	RetryCount int
}

// RetryInterceptor resends failed requests through transporter, which should be
// the base round tripper so the chain itself is not re-entered.
type RetryInterceptor struct {
	cache           *cache.Cache
	transporter     http.RoundTripper
	backoffStrategy BackoffTimer
	retryDecider    RetryDecider
	errorDetector   ErrorDetector
}

func NewRetryInterceptor(transporter http.RoundTripper, backoffStrategy BackoffTimer, retryDecider RetryDecider) *RetryInterceptor {
	return &RetryInterceptor{
		cache:           cache.New(time.Minute, time.Minute*15),
		transporter:     transporter,
		backoffStrategy: backoffStrategy,
		retryDecider:    retryDecider,
		errorDetector:   NewStatusErrorDetector(),
	}
}

// WithErrorDetector makes retried responses go through the same detector as the
// transport the interceptor is installed on.
func (e *RetryInterceptor) WithErrorDetector(detector ErrorDetector) *RetryInterceptor {
	if detector != nil {
		e.errorDetector = detector
	}
	return e
}

func (e *RetryInterceptor) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (e *RetryInterceptor) AfterResponse(data InterceptorData) (InterceptorData, error) {
	defer e.cache.Delete(data.ID)

	for data.Error != nil {
		d := e.getRetryInternalData(data)
		shouldRetry, err := e.retryDecider.ShouldRetry(data.Response, data.Error, d)
		if err != nil {
			return data, err
		}
		if !shouldRetry {
			return data, nil
		}

		timer := time.NewTimer(e.backoffStrategy.TimeToWait(d.RetryCount))
		select {
		case <-data.Ctx.Done():
			timer.Stop()
			return data, data.Ctx.Err()
		case <-timer.C:
		}

		req, err := replayRequest(data.Request)
		if err != nil {
			return data, nil
		}
		if data.Response != nil && data.Response.Body != nil {
			_ = data.Response.Body.Close()
		}

		response, err := e.transporter.RoundTrip(req)
		if err != nil {
			data.Response = nil
			data.Error = &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
			continue
		}
		data.Response = response
		data.Error = e.errorDetector.IsError(data)
	}
	return data, nil
}

func (e *RetryInterceptor) getRetryInternalData(data InterceptorData) RetryInternalData {
	internalData, found := e.cache.Get(data.ID)
	var d RetryInternalData
	if found {
		d = internalData.(RetryInternalData)
		d.RetryCount++
	} else {
		d = RetryInternalData{RetryCount: 1}
	}
	e.cache.Set(data.ID, d, cache.DefaultExpiration)
	return d
}

func replayRequest(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errBodyNotReplayable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

/////////////////////////////////////////

type BackoffStrategyExponential struct {
	baseDuration time.Duration
	maxBackoff   time.Duration
}

func NewRetryInterceptor_ExponentialBackoff(baseDuration, maxBackoff time.Duration) BackoffStrategyExponential {
	return BackoffStrategyExponential{
		baseDuration: baseDuration,
		maxBackoff:   maxBackoff,
	}
}

// TimeToWait replays a jittered exponential schedule up to iteration.
func (b BackoffStrategyExponential) TimeToWait(iteration int) time.Duration {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.baseDuration
	eb.MaxInterval = b.maxBackoff
	eb.MaxElapsedTime = 0
	eb.Reset()

	wait := eb.NextBackOff()
	for i := 1; i < iteration; i++ {
		wait = eb.NextBackOff()
	}
	return wait
}

type BackoffStrategyLinear struct {
	baseDuration time.Duration
}

func NewRetryInterceptor_BackoffStrategyLinear(baseDuration time.Duration) BackoffStrategyLinear {
	return BackoffStrategyLinear{
		baseDuration: baseDuration,
	}
}

func (b BackoffStrategyLinear) TimeToWait(int) time.Duration {
	return b.baseDuration
}

/////////////////////////////////////

// RetryDeciderAll retries all requests that fail
type RetryDeciderAll struct {
	maxRetries int
}

func NewRetryInterceptor_RetryDeciderAll(maxRetries int) RetryDeciderAll {
	return RetryDeciderAll{
		maxRetries: maxRetries,
	}
}

func (r RetryDeciderAll) ShouldRetry(response *http.Response, err error, retryData RetryInternalData) (bool, error) {
	if retryData.RetryCount > r.maxRetries {
		// keep the error that caused the failure
		if err != nil {
			return false, err
		}
		return false, constants.ErrMaxRetriesExceeded
	}

	if err != nil || (response != nil && response.StatusCode >= 400) {
		return true, nil
	}

	return false, nil
}

// RetryDeciderTransient retries transport failures, 429 and 5xx responses only.
type RetryDeciderTransient struct {
	maxRetries int
}

func NewRetryInterceptor_RetryDeciderTransient(maxRetries int) RetryDeciderTransient {
	return RetryDeciderTransient{maxRetries: maxRetries}
}

func (r RetryDeciderTransient) ShouldRetry(response *http.Response, err error, retryData RetryInternalData) (bool, error) {
	if retryData.RetryCount > r.maxRetries {
		return false, nil
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500, nil
	}
	var transportErr *TransportError
	return errors.As(err, &transportErr), nil
}
