package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("caller1"), "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("caller2"))
		}
		assert.False(t, limiter.Allow("caller2"))
	})

	t.Run("separate buckets per key", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("callerA"))
		assert.True(t, limiter.Allow("callerA"))
		assert.False(t, limiter.Allow("callerA"))

		assert.True(t, limiter.Allow("callerB"))
		assert.True(t, limiter.Allow("callerB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("caller3"))
		assert.True(t, limiter.Allow("caller3"))
		assert.False(t, limiter.Allow("caller3"))

		time.Sleep(60 * time.Millisecond)

		assert.True(t, limiter.Allow("caller3"))
	})

	t.Run("remaining reflects consumed tokens", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("fresh"))

		limiter.Allow("fresh")
		limiter.Allow("fresh")

		assert.Equal(t, 3, limiter.Remaining("fresh"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("concurrent") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newContractsRouter := func(limiter *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(RateLimit(limiter))
		router.GET("/api/v1/contracts", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("allows requests within limit", func(t *testing.T) {
		router := newContractsRouter(NewRateLimiter(3, time.Minute))

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/contracts", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("returns 429 when limit exceeded", func(t *testing.T) {
		router := newContractsRouter(NewRateLimiter(2, time.Minute))

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/contracts", nil))
			assert.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/contracts", nil))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	})

	t.Run("sets rate limit headers", func(t *testing.T) {
		router := newContractsRouter(NewRateLimiter(5, time.Minute))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/contracts", nil))

		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("authenticated users get their own bucket", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		router := gin.New()
		// simulate the JWT middleware having identified the caller
		router.Use(func(c *gin.Context) {
			if uid := c.GetHeader("X-Test-User"); uid != "" {
				c.Set(JWTUserIDKey, uid)
			}
			c.Next()
		})
		router.Use(RateLimit(limiter))
		router.GET("/api/v1/contracts", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		send := func(userID string) int {
			req := httptest.NewRequest("GET", "/api/v1/contracts", nil)
			if userID != "" {
				req.Header.Set("X-Test-User", userID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w.Code
		}

		assert.Equal(t, http.StatusOK, send("reviewer-1"))
		assert.Equal(t, http.StatusTooManyRequests, send("reviewer-1"))
		// same IP, different user, separate bucket
		assert.Equal(t, http.StatusOK, send("reviewer-2"))
	})
}

func TestRateLimitByKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	limiter := NewRateLimiter(1, time.Minute)
	keyFunc := func(c *gin.Context) string {
		return c.GetHeader("X-Api-Key")
	}

	router := gin.New()
	router.Use(RateLimitByKey(limiter, keyFunc))
	router.GET("/api/v1/insights", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req1 := httptest.NewRequest("GET", "/api/v1/insights", nil)
	req1.Header.Set("X-Api-Key", "key-1")
	w1 := httptest.NewRecorder()
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)

	req2 := httptest.NewRequest("GET", "/api/v1/insights", nil)
	req2.Header.Set("X-Api-Key", "key-1")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestAuthRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newLoginRouter := func(limiter *RateLimiter) *gin.Engine {
		router := gin.New()
		router.Use(AuthRateLimit(limiter))
		router.POST("/auth/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		return router
	}

	sendLogin := func(router *gin.Engine, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("allows attempts within limit", func(t *testing.T) {
		router := newLoginRouter(NewRateLimiter(5, time.Minute))

		for i := 0; i < 5; i++ {
			w := sendLogin(router, "192.168.1.100")
			assert.Equal(t, http.StatusOK, w.Code, "attempt %d should be allowed", i+1)
		}
	})

	t.Run("returns auth-specific error when exceeded", func(t *testing.T) {
		router := newLoginRouter(NewRateLimiter(3, time.Minute))

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, sendLogin(router, "192.168.1.100").Code)
		}

		w := sendLogin(router, "192.168.1.100")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "AUTH_RATE_LIMIT_EXCEEDED")
		assert.Contains(t, w.Body.String(), "Too many authentication attempts")
	})

	t.Run("includes rate limit headers", func(t *testing.T) {
		router := newLoginRouter(NewRateLimiter(5, time.Minute))

		w := sendLogin(router, "192.168.1.100")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("blocked attempts carry Retry-After", func(t *testing.T) {
		router := newLoginRouter(NewRateLimiter(1, time.Minute))

		sendLogin(router, "192.168.1.100")
		w := sendLogin(router, "192.168.1.100")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("separate buckets per IP", func(t *testing.T) {
		router := newLoginRouter(NewRateLimiter(2, time.Minute))

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, sendLogin(router, "192.168.1.1").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, sendLogin(router, "192.168.1.1").Code)

		assert.Equal(t, http.StatusOK, sendLogin(router, "192.168.1.2").Code)
	})

	t.Run("auth prefixed keys never collide with global limiter", func(t *testing.T) {
		sharedLimiter := NewRateLimiter(2, time.Minute)

		router := gin.New()
		authGroup := router.Group("/auth")
		authGroup.Use(AuthRateLimit(sharedLimiter))
		authGroup.POST("/login", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true})
		})
		apiGroup := router.Group("/api")
		apiGroup.Use(RateLimit(sharedLimiter))
		apiGroup.GET("/v1/contracts", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"items": []string{}})
		})

		// exhaust the auth bucket for this IP
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest("POST", "/auth/login", nil)
			req.RemoteAddr = "192.168.1.100:12345"
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "192.168.1.100:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		// the ip-prefixed bucket for the API is untouched
		req2 := httptest.NewRequest("GET", "/api/v1/contracts", nil)
		req2.RemoteAddr = "192.168.1.100:12345"
		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusOK, w2.Code)
	})
}
