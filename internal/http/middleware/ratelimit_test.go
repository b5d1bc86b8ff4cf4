package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitAllowsWithinBurst(t *testing.T) {
	handler := RateLimit(1, 3)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/intake/sessions", nil)
		req.Header.Set("X-Real-Ip", "203.0.113.7")
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/intake/sessions", nil)
	req.Header.Set("X-Real-Ip", "203.0.113.7")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-burst request: got %d, want 429", rec.Code)
	}
}

func TestRateLimitIsolatesClients(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/intake/sessions", nil)
	req.Header.Set("X-Real-Ip", "198.51.100.1")
	handler.ServeHTTP(first, req)

	blocked := httptest.NewRecorder()
	handler.ServeHTTP(blocked, req)
	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("same client second request: got %d, want 429", blocked.Code)
	}

	other := httptest.NewRecorder()
	otherReq := httptest.NewRequest(http.MethodGet, "/intake/sessions", nil)
	otherReq.Header.Set("X-Real-Ip", "198.51.100.2")
	handler.ServeHTTP(other, otherReq)
	if other.Code != http.StatusOK {
		t.Fatalf("different client: got %d, want 200", other.Code)
	}
}
