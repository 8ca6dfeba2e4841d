package movies

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cineverse/apiservice-sdk-go/sdk/gateway"
	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
)

// Requester is the part of the gateway the handler needs.
type Requester interface {
	Get(ctx context.Context, rawURL string, opts ...gateway.RequestOption) (*gateway.Response, error)
}

type Handler struct {
	gw       Requester
	language string
}

type HandlerOption func(*Handler) *Handler

// WithLanguage sets the language query parameter sent with every call.
func WithLanguage(language string) HandlerOption {
	return func(handler *Handler) *Handler {
		handler.language = language
		return handler
	}
}

func NewHandler(gw Requester, opts ...HandlerOption) *Handler {
	handler := &Handler{
		gw:       gw,
		language: "en-US",
	}
	for _, opt := range opts {
		handler = opt(handler)
	}
	return handler
}

// AddInterceptors registers interceptors on the underlying gateway when it supports it.
func (h *Handler) AddInterceptors(ics ...interceptors.Interceptor) {
	if gw, ok := h.gw.(interface{ Use(...interceptors.Interceptor) }); ok {
		gw.Use(ics...)
	}
}

func (h *Handler) Popular(ctx context.Context, page int) (*Page, error) {
	return h.page(ctx, "/movie/popular", map[string]any{"page": normalizePage(page)})
}

func (h *Handler) TopRated(ctx context.Context, page int) (*Page, error) {
	return h.page(ctx, "/movie/top_rated", map[string]any{"page": normalizePage(page)})
}

func (h *Handler) Search(ctx context.Context, query string, page int) (*Page, error) {
	if query == "" {
		return nil, fmt.Errorf("movies: empty search query")
	}
	return h.page(ctx, "/search/movie", map[string]any{"query": query, "page": normalizePage(page)})
}

func (h *Handler) Details(ctx context.Context, id int64) (*Movie, error) {
	resp, err := h.gw.Get(ctx, "/movie/"+strconv.FormatInt(id, 10), gateway.WithParams(h.params(nil)))
	if err != nil {
		return nil, err
	}
	var movie Movie
	if err := resp.JSON(&movie); err != nil {
		return nil, fmt.Errorf("movies: decode movie %d: %w", id, err)
	}
	return &movie, nil
}

func (h *Handler) page(ctx context.Context, path string, params map[string]any) (*Page, error) {
	resp, err := h.gw.Get(ctx, path, gateway.WithParams(h.params(params)))
	if err != nil {
		return nil, err
	}
	var p Page
	if err := resp.JSON(&p); err != nil {
		return nil, fmt.Errorf("movies: decode %s: %w", path, err)
	}
	return &p, nil
}

func (h *Handler) params(extra map[string]any) map[string]any {
	params := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		params[k] = v
	}
	if h.language != "" {
		params["language"] = h.language
	}
	return params
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
