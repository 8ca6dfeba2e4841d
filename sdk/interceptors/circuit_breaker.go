package interceptors

import (
	"strconv"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/sony/gobreaker"
)

type CircuitBreakerInterceptor struct {
	abortOnFailure bool
	cb             *gobreaker.CircuitBreaker
}

// statusOutcome feeds a status code (0 for transport failures) to the breaker.
type statusOutcome int

func (s statusOutcome) Error() string {
	return strconv.Itoa(int(s))
}

// NewTooManyRequestsBreaker opens on the first 429 and probes again after cooldown.
func NewTooManyRequestsBreaker(name string, cooldown time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 0,
		Interval:    10 * time.Second,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 0
		},
		IsSuccessful: func(err error) bool {
			return err == nil || err.Error() != "429"
		},
	})
}

// NewServerErrorBreaker opens after threshold consecutive 5xx or transport failures.
func NewServerErrorBreaker(name string, threshold uint32, cooldown time.Duration) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			code, ok := err.(statusOutcome)
			if !ok {
				return err == nil
			}
			return code != 0 && code < 500
		},
	})
}

// NewCircuitBreakerInterceptor creates a new circuit breaker interceptor.
// Every outcome is passed to the breaker's IsSuccessful as an error whose text is
// the status code, "0" when no response arrived.
func NewCircuitBreakerInterceptor(cb *gobreaker.CircuitBreaker, abortOnFailure bool) *CircuitBreakerInterceptor {
	if cb == nil {
		panic("cb should not be nil")
	}

	return &CircuitBreakerInterceptor{
		abortOnFailure: abortOnFailure,
		cb:             cb,
	}
}

func (c *CircuitBreakerInterceptor) State() gobreaker.State {
	return c.cb.State()
}

// BeforeRequest rejects the request while the circuit is open
func (c *CircuitBreakerInterceptor) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if c.cb.State() == gobreaker.StateOpen {
		if c.abortOnFailure {
			return data, constants.ErrCircuitBreakerOpen
		}
		data.Error = constants.ErrCircuitBreakerOpen
	}
	return data, nil
}

// AfterResponse records the outcome in the circuit breaker
func (c *CircuitBreakerInterceptor) AfterResponse(data InterceptorData) (InterceptorData, error) {
	outcome := statusOutcome(0)
	if data.Response != nil {
		outcome = statusOutcome(data.Response.StatusCode)
	}
	_, _ = c.cb.Execute(func() (interface{}, error) {
		return nil, outcome
	})

	if data.Error != nil && c.abortOnFailure {
		return data, data.Error
	}
	return data, nil
}
