package interceptors

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LoggerOptions defines configuration options for the logger interceptor
type LoggerOptions struct {
	// Logger is the logger instance to use. defaults to the global zerolog logger
	Logger *zerolog.Logger

	LogBasicInfo bool // Log method, URL, status code
	LogHeaders   bool // Log HTTP headers
	LogBody      bool // Log request/response bodies

	// MaxBodyLogSize is the maximum size of request/response body to log (in bytes). default is 1024 bytes
	MaxBodyLogSize int
	// SkipHeaders is a list of headers to exclude from logs. defaults to Authorization
	SkipHeaders []string
	// SkipPaths is a list of URL path prefixes to exclude from logging
	SkipPaths []string
}

// Logger is an interceptor that logs HTTP requests and responses
type Logger struct {
	opts LoggerOptions
}

func NewLogger(opts LoggerOptions) *Logger {
	if opts.Logger == nil {
		opts.Logger = &log.Logger
	}
	if opts.MaxBodyLogSize == 0 {
		opts.MaxBodyLogSize = 1024
	}
	if opts.SkipHeaders == nil {
		opts.SkipHeaders = []string{"Authorization"}
	}

	skip := make([]string, len(opts.SkipHeaders))
	for i, header := range opts.SkipHeaders {
		skip[i] = strings.ToLower(header)
	}
	opts.SkipHeaders = skip

	return &Logger{opts: opts}
}

func (l *Logger) BeforeRequest(data InterceptorData) (InterceptorData, error) {
	if l.skipped(data.Request) {
		return data, nil
	}

	event := l.opts.Logger.Debug().Str("request_id", data.ID)
	if l.opts.LogBasicInfo {
		event = event.Str("method", data.Request.Method).Str("url", data.Request.URL.String())
	}
	if l.opts.LogHeaders {
		event = event.Dict("headers", l.headerDict(data.Request.Header))
	}
	if l.opts.LogBody && data.Request.Body != nil && data.Request.Body != http.NoBody {
		body, err := io.ReadAll(data.Request.Body)
		if err != nil {
			event = event.AnErr("body_error", err)
		} else {
			data.Request.Body = io.NopCloser(bytes.NewReader(body))
			event = event.Str("body", l.truncate(body))
		}
	}
	event.Msg("-->")

	return data, nil
}

func (l *Logger) AfterResponse(data InterceptorData) (InterceptorData, error) {
	if l.skipped(data.Request) {
		return data, nil
	}

	event := l.opts.Logger.Debug()
	if data.Error != nil {
		event = l.opts.Logger.Warn().Err(data.Error)
	}
	event = event.Str("request_id", data.ID).Dur("elapsed", time.Since(data.StartedAt))

	resp := data.Response
	if resp == nil {
		event.Msg("<-- no response")
		return data, nil
	}

	if l.opts.LogBasicInfo {
		event = event.Int("status", resp.StatusCode).Str("status_text", http.StatusText(resp.StatusCode))
	}
	if l.opts.LogHeaders {
		event = event.Dict("headers", l.headerDict(resp.Header))
	}
	if l.opts.LogBody && resp.Body != nil {
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			event = event.AnErr("body_error", err)
		} else {
			event = event.Str("body", l.truncate(body))
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	event.Msg("<--")

	return data, nil
}

func (l *Logger) skipped(req *http.Request) bool {
	for _, path := range l.opts.SkipPaths {
		if strings.HasPrefix(req.URL.Path, path) {
			return true
		}
	}
	return false
}

func (l *Logger) truncate(body []byte) string {
	if len(body) > l.opts.MaxBodyLogSize {
		return string(body[:l.opts.MaxBodyLogSize]) + " [truncated...]"
	}
	return string(body)
}

func (l *Logger) headerDict(headers http.Header) *zerolog.Event {
	dict := zerolog.Dict()
	for name, values := range headers {
		if l.shouldSkipHeader(name) {
			continue
		}
		dict = dict.Strs(name, values)
	}
	return dict
}

func (l *Logger) shouldSkipHeader(name string) bool {
	lowerName := strings.ToLower(name)
	for _, skip := range l.opts.SkipHeaders {
		if skip == lowerName {
			return true
		}
	}
	return false
}
