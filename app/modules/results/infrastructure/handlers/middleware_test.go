package resultshandlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitWrites(t *testing.T) {
	limiter := NewClientRateLimiter(1, 2)
	fixed := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return fixed }

	handler := RateLimitWrites(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method, remote string) int {
		req := httptest.NewRequest(method, "/competitions/WC2025/rounds/333-r1/open", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if got := do(http.MethodPost, "10.0.0.1:5000"); got != http.StatusNoContent {
			t.Fatalf("request %d: expected 204, got %d", i, got)
		}
	}
	if got := do(http.MethodPost, "10.0.0.1:5001"); got != http.StatusTooManyRequests {
		t.Errorf("expected burst to be exhausted, got %d", got)
	}
	if got := do(http.MethodGet, "10.0.0.1:5002"); got != http.StatusNoContent {
		t.Errorf("reads must not be limited, got %d", got)
	}
	if got := do(http.MethodPost, "10.0.0.2:5000"); got != http.StatusNoContent {
		t.Errorf("other clients have their own bucket, got %d", got)
	}

	fixed = fixed.Add(time.Second)
	if got := do(http.MethodPost, "10.0.0.1:5003"); got != http.StatusNoContent {
		t.Errorf("expected a refilled token, got %d", got)
	}
}

func TestClientRateLimiter_PrunesIdleClients(t *testing.T) {
	limiter := NewClientRateLimiter(1, 1)
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	for i := 0; i <= cleanupThreshold; i++ {
		limiter.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	if got := limiter.Len(); got != cleanupThreshold+1 {
		t.Fatalf("expected %d clients, got %d", cleanupThreshold+1, got)
	}

	now = now.Add(maxIdleAge + time.Minute)
	limiter.Allow("192.168.0.1")
	if got := limiter.Len(); got != 1 {
		t.Errorf("expected idle clients to be pruned, got %d", got)
	}
}
