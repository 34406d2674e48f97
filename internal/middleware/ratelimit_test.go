package middleware

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

func newLimitedRouter(rate int) *gin.Engine {
	router := gin.New()
	router.Use(NewRateLimiter(rate).RateLimit())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func hit(router *gin.Engine, addr string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = addr
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	router := newLimitedRouter(3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(router, "203.0.113.7:1000"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(router, "203.0.113.7:1000"))

	// Other clients keep their own window.
	assert.Equal(t, http.StatusOK, hit(router, "198.51.100.4:1000"))
}
