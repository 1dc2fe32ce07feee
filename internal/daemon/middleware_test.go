package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestGetCorrelationID(t *testing.T) {
	ctx := context.WithValue(context.Background(), CorrelationIDKey, "req-123")
	assert.Equal(t, "req-123", GetCorrelationID(ctx))

	assert.Empty(t, GetCorrelationID(context.Background()))

	wrongType := context.WithValue(context.Background(), CorrelationIDKey, 12345)
	assert.Empty(t, GetCorrelationID(wrongType))
}

func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	var captured string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	_, err := uuid.Parse(captured)
	require.NoError(t, err)
	assert.Equal(t, captured, rec.Header().Get(CorrelationIDHeader))
}

func TestCorrelationIDMiddleware_PropagatesExistingID(t *testing.T) {
	var captured string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, "existing-id")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "existing-id", captured)
	assert.Equal(t, "existing-id", rec.Header().Get(CorrelationIDHeader))
}

func TestCorrelationIDMiddleware_ReplacesOversizedID(t *testing.T) {
	var captured string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(CorrelationIDHeader, strings.Repeat("x", maxCorrelationIDLength+1))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	_, err := uuid.Parse(captured)
	assert.NoError(t, err)
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"ok", http.StatusOK},
		{"client error", http.StatusNotFound},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestResponseWriter_DefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	_, err := rw.Write([]byte("body"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rw.statusCode)

	rw.WriteHeader(http.StatusTeapot)
	assert.Equal(t, http.StatusTeapot, rw.statusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := correlationIDMiddleware(recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Error)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestRecoveryMiddleware_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	recoveryMiddleware(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Rate: 1, Burst: 1, Interval: time.Minute})
	t.Cleanup(func() { _ = limiter.Close() })
	handler := rateLimitMiddleware(limiter)(http.HandlerFunc(okHandler))

	post := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/topics/a/start", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, post("10.0.0.1:5000"))
	limited := false
	for i := range 5 {
		if post(fmt.Sprintf("10.0.0.1:%d", 5001+i)) == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "same host on any port shares one bucket")
	assert.Equal(t, http.StatusOK, post("10.0.0.2:5000"), "other clients have their own bucket")

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/mastery", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.4:8080"
	assert.Equal(t, "192.168.1.4", clientKey(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientKey(req))
}
