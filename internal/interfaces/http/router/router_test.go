package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("health", "/ping")
	group.GET("", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroupMethods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("products", "/products")
	ok := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("/:id", ok).
		POST("", ok).
		PUT("/:id", ok).
		PATCH("/:id", ok).
		DELETE("/:id", ok).
		Handle(http.MethodOptions, "/:id", ok)
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/products/42"},
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/products/42"},
		{http.MethodPatch, "/api/v1/products/42"},
		{http.MethodDelete, "/api/v1/products/42"},
		{http.MethodOptions, "/api/v1/products/42"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.method, w.Body.String())
		})
	}
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("inventory", "/inventory")
	g.Use(func(c *gin.Context) {
		c.Header("X-Guard", "ran")
		c.Next()
	})
	g.GET("/lookup/:barcode", func(c *gin.Context) { c.String(http.StatusOK, c.Param("barcode")) })
	g.RegisterRoutes(engine.Group("/api/v1"))

	w := serve(engine, http.MethodGet, "/api/v1/inventory/lookup/800123")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ran", w.Header().Get("X-Guard"))
	assert.Equal(t, "800123", w.Body.String())
}

func TestDomainGroupSubgroups(t *testing.T) {
	engine := gin.New()
	admin := NewDomainGroup("admin", "/admin")
	admin.Group("orders", "/orders").PATCH("/:id/status", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})
	NewRouter(engine).Register(admin).Setup()

	w := serve(engine, http.MethodPatch, "/api/v1/admin/orders/7/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Body.String())

	assert.Equal(t, []RouteInfo{
		{Group: "orders", Method: http.MethodPatch, Path: "/api/v1/admin/orders/:id/status"},
	}, admin.Routes("/api/v1"))
}

func TestDomainGroupRoutesEmptyPath(t *testing.T) {
	g := NewDomainGroup("users", "/users/me")
	g.GET("", func(c *gin.Context) {})
	g.PUT("/password", func(c *gin.Context) {})

	assert.Equal(t, []RouteInfo{
		{Group: "users", Method: http.MethodGet, Path: "/api/v1/users/me"},
		{Group: "users", Method: http.MethodPut, Path: "/api/v1/users/me/password"},
	}, g.Routes("/api/v1"))
}
