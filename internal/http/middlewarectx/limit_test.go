package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekunemmanuel/blog-saas/internal/http/middlewarectx"
)

func TestRateLimitMiddleware(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	middleware := middlewarectx.RateLimitMiddleware(newNoopLogger())(nextHandler)

	var okCount, limitedCount int
	for range 100 {
		req := httptest.NewRequest(http.MethodGet, "/somepath", nil)
		rec := httptest.NewRecorder()
		middleware.ServeHTTP(rec, req)

		switch rec.Code {
		case http.StatusOK:
			okCount++
		case http.StatusTooManyRequests:
			limitedCount++
		}
	}

	assert.NotZero(t, okCount)
	assert.NotZero(t, limitedCount)
}
