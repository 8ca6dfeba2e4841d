package movies

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cineverse/apiservice-sdk-go/sdk/gateway"
	"github.com/cineverse/apiservice-sdk-go/sdk/host"
	"github.com/cineverse/apiservice-sdk-go/sdk/interceptors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, h http.HandlerFunc, opts ...HandlerOption) *Handler {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	gw, err := gateway.New(
		gateway.WithBaseURL(srv.URL+"/3"),
		gateway.WithTokenSource(interceptors.StaticTokenSource("token")),
	)
	require.NoError(t, err)
	require.NoError(t, gw.Init(host.NewRegistry()))
	gw.SetRequestInterceptor()
	gw.SetResponseInterceptor()
	return NewHandler(gw, opts...)
}

func TestPopular(t *testing.T) {
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/popular", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"page":2,"results":[{"id":550,"title":"Fight Club","vote_average":8.4}],"total_pages":10,"total_results":200}`)
	})

	page, err := handler.Popular(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(550), page.Results[0].ID)
	assert.Equal(t, "Fight Club", page.Results[0].Title)
	assert.Equal(t, 200, page.TotalResults)
}

func TestTopRated_NormalizesPage(t *testing.T) {
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/top_rated", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		_, _ = io.WriteString(w, `{"page":1,"results":[]}`)
	})

	page, err := handler.TopRated(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
}

func TestSearch(t *testing.T) {
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "the matrix", r.URL.Query().Get("query"))
		assert.Equal(t, "fr-FR", r.URL.Query().Get("language"))
		_, _ = io.WriteString(w, `{"page":1,"results":[{"id":603,"title":"Matrix"}]}`)
	}, WithLanguage("fr-FR"))

	page, err := handler.Search(context.Background(), "the matrix", 1)
	require.NoError(t, err)
	assert.Equal(t, "Matrix", page.Results[0].Title)

	_, err = handler.Search(context.Background(), "", 1)
	assert.Error(t, err)
}

func TestDetails(t *testing.T) {
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/603", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":603,"title":"The Matrix","runtime":136,"genres":[{"id":28,"name":"Action"}]}`)
	})

	movie, err := handler.Details(context.Background(), 603)
	require.NoError(t, err)
	assert.Equal(t, 136, movie.Runtime)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}}, movie.Genres)
}

func TestDetails_NotFound(t *testing.T) {
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"status_code":34,"status_message":"The resource you requested could not be found."}`)
	})

	_, err := handler.Details(context.Background(), 1)
	assert.Equal(t, http.StatusNotFound, gateway.StatusCode(err))
}

func TestAddInterceptors(t *testing.T) {
	var seen string
	handler := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Extra")
		_, _ = io.WriteString(w, `{"page":1}`)
	})
	handler.AddInterceptors(interceptors.Funcs{OnRequest: func(r *http.Request) (*http.Request, error) {
		r.Header.Set("X-Extra", "1")
		return r, nil
	}})

	_, err := handler.Popular(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "1", seen)
}
