package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	t.Run("rejects cross-origin request with empty whitelist default", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "http://malicious.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allows same-origin request", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("answers preflight without headers", func(t *testing.T) {
		w := serve(router, http.MethodOptions, "/test", map[string]string{"Origin": "http://some-origin.com"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestCORSWithConfig(t *testing.T) {
	newRouter := func(cfg CORSConfig) *gin.Engine {
		router := gin.New()
		router.Use(CORSWithConfig(cfg))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
		return router
	}

	t.Run("allows listed origin with credentials", func(t *testing.T) {
		router := newRouter(CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "https://admin.example.com"},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		})

		w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "https://admin.example.com"})

		assert.Equal(t, "https://admin.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("ignores unlisted origin", func(t *testing.T) {
		router := newRouter(CORSConfig{AllowOrigins: []string{"http://localhost:3000"}})

		w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "http://other.com"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never sends credentials", func(t *testing.T) {
		router := newRouter(CORSConfig{AllowOrigins: []string{"*"}, AllowCredentials: true})

		w := serve(router, http.MethodGet, "/test", map[string]string{"Origin": "http://any.com"})

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight for listed origin carries headers", func(t *testing.T) {
		router := newRouter(CORSConfig{
			AllowOrigins: []string{"http://localhost:3000"},
			AllowMethods: []string{"GET", "PUT"},
		})

		w := serve(router, http.MethodOptions, "/test", map[string]string{"Origin": "http://localhost:3000"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, PUT", w.Header().Get("Access-Control-Allow-Methods"))
	})
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("generates an ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", nil)

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps a client ID", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDHeader: "client-id-1"})

		assert.Equal(t, "client-id-1", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "client-id-1", w.Body.String())
	})

	t.Run("replaces an oversized client ID", func(t *testing.T) {
		long := strings.Repeat("x", MaxRequestIDLength+1)
		w := serve(router, http.MethodGet, "/test", map[string]string{RequestIDHeader: long})

		assert.NotEqual(t, long, w.Header().Get(RequestIDHeader))
		assert.LessOrEqual(t, len(w.Body.String()), MaxRequestIDLength)
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := serve(router, http.MethodGet, "/test", nil)

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, DefaultSecurityConfig().CSPDirective, w.Header().Get("Content-Security-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecureWithConfig_HSTS(t *testing.T) {
	cfg := DefaultSecurityConfig()
	cfg.HSTSEnabled = true
	cfg.HSTSMaxAge = 600

	router := gin.New()
	router.Use(SecureWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := serve(router, http.MethodGet, "/test", nil)

	assert.Equal(t, "max-age=600; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestTimeout(t *testing.T) {
	t.Run("sets a deadline on the request context", func(t *testing.T) {
		router := gin.New()
		router.Use(Timeout(5 * time.Second))
		var hasDeadline bool
		router.GET("/test", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		w := serve(router, http.MethodGet, "/test", nil)

		assert.True(t, hasDeadline)
		assert.Equal(t, "5s", w.Header().Get("X-Request-Timeout"))
	})

	t.Run("zero disables the deadline", func(t *testing.T) {
		router := gin.New()
		router.Use(Timeout(0))
		var hasDeadline bool
		router.GET("/test", func(c *gin.Context) {
			_, hasDeadline = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		})

		serve(router, http.MethodGet, "/test", nil)

		assert.False(t, hasDeadline)
	})

	t.Run("skipped routes keep the request context", func(t *testing.T) {
		router := gin.New()
		router.Use(TimeoutWithSkipper(5*time.Second, func(c *gin.Context) bool {
			return strings.HasPrefix(c.FullPath(), "/runs/")
		}))
		deadlines := map[string]bool{}
		handler := func(c *gin.Context) {
			_, deadlines[c.FullPath()] = c.Request.Context().Deadline()
			c.Status(http.StatusOK)
		}
		router.POST("/runs/:kind", handler)
		router.GET("/logs", handler)

		w := serve(router, http.MethodPost, "/runs/new", nil)
		serve(router, http.MethodGet, "/logs", nil)

		assert.False(t, deadlines["/runs/:kind"])
		assert.Empty(t, w.Header().Get("X-Request-Timeout"))
		assert.True(t, deadlines["/logs"])
	})
}
