package interceptors

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

var errNoResponse = errors.New("interceptor chain finished without a response")

type InterceptorTransport struct {
	rt            http.RoundTripper
	errorDetector ErrorDetector

	mu           sync.RWMutex
	interceptors []Interceptor
}

func NewInterceptorTransport(rt http.RoundTripper, interceptors []Interceptor) *InterceptorTransport {
	return NewInterceptorTransportWithDetector(rt, nil, interceptors)
}

// NewInterceptorTransportWithDetector decides which responses count as errors
// with detector instead of the status check.
func NewInterceptorTransportWithDetector(rt http.RoundTripper, detector ErrorDetector, interceptors []Interceptor) *InterceptorTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	if detector == nil {
		detector = NewStatusErrorDetector()
	}
	return &InterceptorTransport{
		rt:            rt,
		errorDetector: detector,
		interceptors:  append([]Interceptor(nil), interceptors...),
	}
}

// Base returns the round tripper requests are finally sent through.
func (it *InterceptorTransport) Base() http.RoundTripper {
	return it.rt
}

// AddInterceptors appends to the chain. Requests already in flight keep the chain they started with.
func (it *InterceptorTransport) AddInterceptors(interceptors ...Interceptor) {
	it.mu.Lock()
	defer it.mu.Unlock()
	next := make([]Interceptor, 0, len(it.interceptors)+len(interceptors))
	next = append(next, it.interceptors...)
	next = append(next, interceptors...)
	it.interceptors = next
}

func (it *InterceptorTransport) ErrorDetector() ErrorDetector {
	return it.errorDetector
}

// Interceptors returns the registered chain in execution order.
func (it *InterceptorTransport) Interceptors() []Interceptor {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.interceptors
}

func (it *InterceptorTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return it.RoundTripWithID(req, uuid.New().String())
}

func (it *InterceptorTransport) RoundTripWithID(req *http.Request, id string) (*http.Response, error) {
	chain := it.Interceptors()

	// interceptors work on a clone so the caller's request stays untouched
	data := InterceptorData{
		ID:             id,
		Ctx:            req.Context(),
		StartedAt:      time.Now(),
		InitialRequest: req,
		Request:        req.Clone(req.Context()),
	}
	var err error
	for _, interceptor := range chain {
		data, err = interceptor.BeforeRequest(data)
		if err != nil {
			closeRequestBody(req)
			return nil, err
		}
		if data.Response != nil {
			closeRequestBody(req)
			return data.Response, nil
		}
	}
	if data.Error != nil {
		closeRequestBody(req)
		return nil, data.Error
	}

	resp, err := it.rt.RoundTrip(data.Request)
	if err != nil {
		data.Error = &TransportError{Method: data.Request.Method, URL: data.Request.URL.String(), Err: err}
	} else {
		data.Response = resp
		if statusErr := it.errorDetector.IsError(data); statusErr != nil {
			data.Error = statusErr
		}
	}

	for _, interceptor := range chain {
		data, err = interceptor.AfterResponse(data)
		if err != nil {
			data.Error = err
		}
	}

	if data.Error != nil {
		if data.Response != nil && data.Response.Body != nil {
			_ = data.Response.Body.Close()
		}
		return nil, data.Error
	}
	if data.Response == nil {
		return nil, &TransportError{Method: data.Request.Method, URL: data.Request.URL.String(), Err: errNoResponse}
	}
	return data.Response, nil
}

// closeRequestBody honours the RoundTripper contract for requests that are never sent.
func closeRequestBody(req *http.Request) {
	if req.Body != nil {
		_ = req.Body.Close()
	}
}
