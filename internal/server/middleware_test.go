package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddlewareSetsHeaders(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	proc := &mockProcessor{}
	_, mux := newTestServer(proc)

	req := httptest.NewRequest(http.MethodOptions, "/scan", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	// preflight never reaches the handler
	assert.Equal(t, 0, proc.calls)
}

func TestRequestIDGenerated(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPreserved(t *testing.T) {
	_, mux := newTestServer(&mockProcessor{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, "req-abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := New(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 10,
		TimeoutSec:  5,
		RateLimit:   &RateLimitConfig{RequestsPerMinute: 2, MaxDataPerDay: 1 << 20},
	}, &mockProcessor{})
	mux := http.NewServeMux()
	s.SetupRoutes(mux)

	send := func() *httptest.ResponseRecorder {
		body, contentType := multipartUpload(t, "file", "receipt.png", testPNG(t), nil)
		req := httptest.NewRequest(http.MethodPost, "/scan", body)
		req.Header.Set("Content-Type", contentType)
		req.RemoteAddr = "10.0.0.7:52100"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send().Code)
	require.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "minute", rec.Header().Get("X-RateLimit-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "192.168.1.5:44321",
			want:       "192.168.1.5",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-forwarded-for chain takes first",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.2"},
			want:       "203.0.113.9",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
