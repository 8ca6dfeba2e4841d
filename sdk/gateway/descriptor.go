package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cineverse/apiservice-sdk-go/sdk/constants"
	"github.com/oapi-codegen/runtime"
)

// Descriptor describes one HTTP call.
type Descriptor struct {
	Method string
	URL    string
	// Header entries replace the defaults of the same name.
	Header http.Header
	// Params are encoded in form style and appended to the query.
	Params map[string]any
	Query  url.Values
	// Body is sent as is for []byte, string and io.Reader, JSON-encoded otherwise.
	Body any
	// Timeout bounds this call only. Zero leaves the transport defaults in place.
	Timeout time.Duration
}

// RequestOption adjusts the Descriptor built by the verb methods.
type RequestOption func(*Descriptor)

func WithHeaders(header http.Header) RequestOption {
	return func(d *Descriptor) {
		if d.Header == nil {
			d.Header = make(http.Header)
		}
		for k, v := range header {
			d.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
}

func WithParams(params map[string]any) RequestOption {
	return func(d *Descriptor) {
		if d.Params == nil {
			d.Params = make(map[string]any, len(params))
		}
		for k, v := range params {
			d.Params[k] = v
		}
	}
}

func WithQuery(query url.Values) RequestOption {
	return func(d *Descriptor) {
		if d.Query == nil {
			d.Query = make(url.Values)
		}
		for k, v := range query {
			d.Query[k] = append(d.Query[k], v...)
		}
	}
}

func WithTimeout(timeout time.Duration) RequestOption {
	return func(d *Descriptor) {
		d.Timeout = timeout
	}
}

func (g *Gateway) newRequest(ctx context.Context, d Descriptor) (*http.Request, context.CancelFunc, error) {
	u, err := g.resolveURL(d.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := mergeQuery(u, d.Query, d.Params); err != nil {
		return nil, nil, err
	}

	body, err := encodeBody(d.Body)
	if err != nil {
		return nil, nil, err
	}

	method := strings.ToUpper(d.Method)
	if method == "" {
		method = http.MethodGet
	}

	cancel := context.CancelFunc(func() {})
	if d.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header = g.config.Headers()
	for k, v := range d.Header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return req, cancel, nil
}

// resolveURL joins relative URLs onto the base the way browsers' HTTP libraries do:
// the base path is kept and exactly one slash separates the two.
func (g *Gateway) resolveURL(raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if ref.IsAbs() {
		return ref, nil
	}
	base := g.config.baseURL
	if base == "" {
		return nil, fmt.Errorf("%w: %q", constants.ErrRelativeURL, raw)
	}
	if raw == "" {
		return url.Parse(base)
	}
	return url.Parse(strings.TrimRight(base, "/") + "/" + strings.TrimLeft(raw, "/"))
}

func mergeQuery(u *url.URL, query url.Values, params map[string]any) error {
	if len(query) == 0 && len(params) == 0 {
		return nil
	}
	q := u.Query()
	for k, v := range query {
		for _, s := range v {
			q.Add(k, s)
		}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if params[name] == nil {
			continue
		}
		encoded, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, params[name])
		if err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(encoded)
		if err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", name, err)
		}
		for k, v := range parsed {
			for _, s := range v {
				q.Add(k, s)
			}
		}
	}
	u.RawQuery = q.Encode()
	return nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case io.Reader:
		return b, nil
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		return bytes.NewReader(buf), nil
	}
}
