package interceptors

import (
	"context"
	"net/http"
	"time"
)

// InterceptorData is the per-request record handed from one interceptor to the next.
type InterceptorData struct {
	ID             string
	Ctx            context.Context
	StartedAt      time.Time
	InitialRequest *http.Request
	Request        *http.Request
	Response       *http.Response
	Error          error
}

// Interceptor observes or mutates a request on its way out and the result on its way in.
//
// BeforeRequest runs in registration order before transmission. A returned error
// rejects the request and nothing is sent.
//
// AfterResponse runs in registration order once a response (or a failure) is known.
// Failures are carried in data.Error: returning a non-nil error replaces it,
// returning data with Error cleared recovers the request.
type Interceptor interface {
	BeforeRequest(data InterceptorData) (InterceptorData, error)
	AfterResponse(data InterceptorData) (InterceptorData, error)
}

// Funcs adapts a set of plain callbacks into an Interceptor. Nil callbacks pass through.
type Funcs struct {
	OnRequest       func(req *http.Request) (*http.Request, error)
	OnRequestError  func(err error) error
	OnResponse      func(resp *http.Response) (*http.Response, error)
	OnResponseError func(err error) (*http.Response, error)
}

func (f Funcs) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if data.Error != nil {
		if f.OnRequestError == nil {
			return data, nil
		}
		data.Error = f.OnRequestError(data.Error)
		return data, nil
	}
	if f.OnRequest == nil {
		return data, nil
	}
	req, err := f.OnRequest(data.Request)
	if err != nil {
		return data, err
	}
	if req != nil {
		data.Request = req
	}
	return data, nil
}

func (f Funcs) AfterResponse(data InterceptorData) (InterceptorData, error) {
	if data.Error != nil {
		if f.OnResponseError == nil {
			return data, nil
		}
		resp, err := f.OnResponseError(data.Error)
		if err != nil {
			return data, err
		}
		if resp != nil {
			data.Response = resp
		}
		data.Error = nil
		return data, nil
	}
	if f.OnResponse == nil {
		return data, nil
	}
	resp, err := f.OnResponse(data.Response)
	if err != nil {
		return data, err
	}
	if resp != nil {
		data.Response = resp
	}
	return data, nil
}

// PassThrough leaves both directions untouched. A failure stays a failure.
type PassThrough struct{}

func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

func (PassThrough) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	return data, nil
}

func (PassThrough) AfterResponse(data InterceptorData) (InterceptorData, error) {
	return data, nil
}
