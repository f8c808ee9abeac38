package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimiter_PerCaller(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, quietLogger())
	h := rl.Handler(okHandler())

	send := func(caller string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/flights", nil)
		if caller != "" {
			req.Header.Set(CallerHeader, caller)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("passenger-1"))
	assert.Equal(t, http.StatusOK, send("passenger-1"))
	assert.Equal(t, http.StatusTooManyRequests, send("passenger-1"))

	// Other callers have their own bucket.
	assert.Equal(t, http.StatusOK, send("passenger-2"))
	assert.Equal(t, http.StatusOK, send(""))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10, 10, quietLogger())
	now := time.Unix(1700000000, 0)
	rl.now = func() time.Time { return now }

	rl.limiterFor("a")
	now = now.Add(time.Minute)
	rl.limiterFor("b")

	assert.Equal(t, 1, rl.Cleanup(30*time.Second))
	assert.Len(t, rl.visitors, 1)
	assert.Contains(t, rl.visitors, "b")
}

func TestRequestLogger_PassesStatus(t *testing.T) {
	h := RequestLogger(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
