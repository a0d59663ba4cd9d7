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

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Register(NewDomainGroup("contracts", "/contracts"))

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("contracts", "/contracts")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	w := serve(engine, "GET", "/api/v1/contracts/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("carries name and prefix", func(t *testing.T) {
		g := NewDomainGroup("obligations", "/obligations")
		assert.Equal(t, "obligations", g.Name())
		assert.Equal(t, "/obligations", g.Prefix())
	})

	t.Run("registers each HTTP method", func(t *testing.T) {
		tests := []struct {
			method     string
			path       string
			wantStatus int
		}{
			{"GET", "/api/v1/obligations/items", http.StatusOK},
			{"POST", "/api/v1/obligations/items", http.StatusCreated},
			{"PUT", "/api/v1/obligations/items/42", http.StatusOK},
			{"PATCH", "/api/v1/obligations/items/42", http.StatusOK},
			{"DELETE", "/api/v1/obligations/items/42", http.StatusNoContent},
		}

		engine := gin.New()
		g := NewDomainGroup("obligations", "/obligations")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })
		g.PUT("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "updated") })
		g.PATCH("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "patched") })
		g.DELETE("/items/:id", func(c *gin.Context) { c.String(http.StatusNoContent, "") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tt := range tests {
			w := serve(engine, tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, w.Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("obligations", "/obligations")

		g.Use(func(c *gin.Context) {
			c.Header("X-Domain", "obligations")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/obligations/items")
		assert.Equal(t, "obligations", w.Header().Get("X-Domain"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("contracts", "/contracts")

		reviews := g.Group("reviews", "/reviews")
		reviews.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "reviews list")
		})

		redlines := g.Group("redlines", "/redlines")
		redlines.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "redlines list")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "GET", "/api/v1/contracts/reviews")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "reviews list", w.Body.String())

		w = serve(engine, "GET", "/api/v1/contracts/redlines")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "redlines list", w.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	contracts := NewDomainGroup("contracts", "/contracts")
	contracts.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "contracts")
	})

	clauses := NewDomainGroup("clauses", "/clauses")
	clauses.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "clauses")
	})

	r.Register(contracts).Register(clauses)
	r.Setup()

	w := serve(engine, "GET", "/api/v1/contracts")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "contracts", w.Body.String())

	w = serve(engine, "GET", "/api/v1/clauses")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "clauses", w.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("sync", "/sync")
	g.GET("/runs", func(c *gin.Context) { c.String(http.StatusOK, "runs") }).
		POST("/sales-orders", func(c *gin.Context) { c.String(http.StatusOK, "started") }).
		POST("/work-orders", func(c *gin.Context) { c.String(http.StatusOK, "started") })

	r.Register(g).Setup()

	for _, tt := range []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/sync/runs"},
		{"POST", "/api/v1/sync/sales-orders"},
		{"POST", "/api/v1/sync/work-orders"},
	} {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s should be routed", tt.method, tt.path)
	}
}
