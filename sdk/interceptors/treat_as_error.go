package interceptors

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rs/zerolog/log"
)

// ErrorDetector decides whether a response that arrived should fail the request.
type ErrorDetector interface {
	// IsError will return error if any of the conditions are met
	IsError(data InterceptorData) error
}

type ErrorDetectorFunc func(data InterceptorData) error

func (f ErrorDetectorFunc) IsError(data InterceptorData) error {
	return f(data)
}

type statusErrorDetector struct{}

type errorTemplate struct {
	StatusMessage string `json:"status_message"`
	Details       string `json:"details"`
	Reason        string `json:"reason"`
	Message       struct {
		Detail string `json:"detail"`
	} `json:"message"`
	Error string `json:"error"`
}

func (statusErrorDetector) IsError(data InterceptorData) error {
	resp := data.Response
	if resp == nil || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}
	// redirects are followed by http.Client above the transport
	if resp.StatusCode >= 300 && resp.StatusCode < 400 && resp.Header.Get("Location") != "" {
		return nil
	}

	statusErr := &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
	}
	if resp.Body == nil {
		return statusErr
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return &TransportError{Method: data.Request.Method, URL: data.Request.URL.String(), Err: err}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	statusErr.Body = body

	var tmpl errorTemplate
	if len(body) > 0 {
		if err := json.Unmarshal(body, &tmpl); err != nil {
			log.Debug().Err(err).Str("request_id", data.ID).Msg("error body is not json")
		}
	}

	switch {
	case tmpl.StatusMessage != "":
		statusErr.Message = tmpl.StatusMessage
	case tmpl.Message.Detail != "":
		statusErr.Message = tmpl.Message.Detail
	case tmpl.Reason != "":
		statusErr.Message = tmpl.Reason
	case tmpl.Error != "":
		statusErr.Message = tmpl.Error
	case tmpl.Details != "":
		statusErr.Message = tmpl.Details
	}
	return statusErr
}

// NewStatusErrorDetector treats every response outside 2xx as an *HTTPStatusError.
func NewStatusErrorDetector() ErrorDetector {
	return statusErrorDetector{}
}
