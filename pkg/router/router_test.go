package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleptokart/kleptokart/pkg/router"
)

func ok(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }

func TestGroup_NamedRoutes(t *testing.T) {
	r := router.New()
	api := r.Group("/api")
	api.Get("/listings", "listings.index", ok)
	api.Delete("/listings/{id}", "listings.destroy", ok)
	api.Post("/listings/{id}/buy", "listings.buy", ok)
	r.Get("/health", "health", ok)

	url, err := r.URL("listings.buy", map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "/api/listings/7/buy", url)

	_, err = r.URL("listings.destroy", nil)
	assert.Error(t, err)

	_, err = r.URL("nope", nil)
	assert.Error(t, err)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/listings/3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRoutes_Sorted(t *testing.T) {
	r := router.New()
	r.Post("/api/listings", "listings.store", ok)
	r.Get("/api/listings", "listings.index", ok)
	r.Get("/health", "", ok)

	assert.Equal(t, []router.RouteInfo{
		{Method: http.MethodGet, Path: "/api/listings", Name: "listings.index"},
		{Method: http.MethodPost, Path: "/api/listings", Name: "listings.store"},
		{Method: http.MethodGet, Path: "/health"},
	}, r.Routes())
}

func TestGroup_MiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, tag)
				next.ServeHTTP(w, req)
			})
		}
	}

	r := router.New()
	r.Group("/api", mw("group")).Get("/x", "", ok, mw("route"))
	r.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/x", nil))

	assert.Equal(t, []string{"group", "route"}, order)
}
