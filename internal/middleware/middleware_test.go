package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func TestRequestSizeLimiter(t *testing.T) {
	var readErr error
	handler := RequestSizeLimiter(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	t.Run("small body passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234"))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.NoError(t, readErr)
	})

	t.Run("large body is cut off", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("123456789012"))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Error(t, readErr)
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks after burst", func(t *testing.T) {
		rl := NewRateLimiter(1, 2)
		handler := rl.Middleware()(okHandler())

		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}

		assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	})

	t.Run("clients are limited separately", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		handler := rl.Middleware()(okHandler())

		for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = addr
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, addr)
		}
		assert.Equal(t, 2, rl.Size())
	})

	t.Run("ports do not split a client", func(t *testing.T) {
		rl := NewRateLimiter(1, 1)
		handler := rl.Middleware()(okHandler())

		first := httptest.NewRequest(http.MethodGet, "/", nil)
		first.RemoteAddr = "10.0.0.9:1000"
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/", nil)
		second.RemoteAddr = "10.0.0.9:2000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("uses first forwarded hop", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, "203.0.113.7", clientKey(req))
	})

	t.Run("prune drops idle clients", func(t *testing.T) {
		rl := NewRateLimiter(10, 10)
		rl.getLimiter("a")
		require.Equal(t, 1, rl.Size())

		rl.mu.Lock()
		rl.limiters["a"].lastSeen = time.Now().Add(-time.Hour)
		rl.mu.Unlock()

		assert.Equal(t, 1, rl.Prune(time.Minute))
		assert.Equal(t, 0, rl.Size())
	})
}
