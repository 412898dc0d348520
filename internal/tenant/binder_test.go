package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind_ResolvesSelectedUnit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	var bound Adapter
	router := gin.New()
	router.Use(Bind(m, func(c *gin.Context) string { return "unit_a" }))
	router.GET("/", func(c *gin.Context) {
		bound = BoundAdapter(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, bound)
	assert.Equal(t, BackendEmbedded, bound.Backend())
}

func TestBind_NoSelection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)

	var bound Adapter
	router := gin.New()
	router.Use(Bind(m, func(c *gin.Context) string { return "" }))
	router.GET("/", func(c *gin.Context) {
		bound = BoundAdapter(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Nil(t, bound)
}

func TestBind_UnknownUnitBindsNothing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)

	var bound Adapter
	router := gin.New()
	router.Use(Bind(m, func(c *gin.Context) string { return "ghost" }))
	router.GET("/", func(c *gin.Context) {
		bound = BoundAdapter(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Nil(t, bound)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBind_ReusesCachedHandleAcrossRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)
	require.NoError(t, m.Registry().RegisterUnit(Descriptor{ID: "unit_a"}))

	var seen []Adapter
	router := gin.New()
	router.Use(Bind(m, func(c *gin.Context) string { return "unit_a" }))
	router.GET("/", func(c *gin.Context) {
		seen = append(seen, BoundAdapter(c))
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	}

	require.Len(t, seen, 2)
	// The native handle persists in the cache between requests, while
	// each request binds its own adapter.
	assert.NotSame(t, seen[0], seen[1])
	assert.Same(t, seen[0].(*embeddedAdapter).db, seen[1].(*embeddedAdapter).db)
}
