package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies configured", nil, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.1"},
		{"trusted real ip", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.2"}, "5.6.7.8"},
		{"single ip entry", []string{"10.0.0.1"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"untrusted source", []string{"10.0.0.0/8"}, "192.0.2.9:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "192.0.2.9"},
		{"invalid header kept out", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.1"},
		{"invalid cidr skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d for a rejected", i)
		}
	}
	if rl.Allow("a") {
		t.Error("third request for a allowed")
	}
	if !rl.Allow("b") {
		t.Error("first request for b rejected")
	}
}

func TestRateLimiterEvictsIdle(t *testing.T) {
	rl := NewRateLimiter(10)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow("old")
	now = now.Add(5 * time.Minute)
	rl.Allow("new")
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["old"]; ok {
		t.Error("idle visitor was not evicted")
	}
	if _, ok := rl.visitors["new"]; !ok {
		t.Error("active visitor was evicted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("Retry-After = %q, want 60", got)
	}
}

func TestSecurityHeadersCSPToggle(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		rec := httptest.NewRecorder()
		SecurityHeaders(enabled)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := rec.Header().Get("Content-Security-Policy") != ""; got != enabled {
			t.Errorf("csp enabled=%v, header present=%v", enabled, got)
		}
		if rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Error("missing X-Frame-Options")
		}
	}
}

func TestRequestKey(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"none", nil, ""},
		{"api key header", map[string]string{"X-API-Key": " k1 "}, "k1"},
		{"bearer", map[string]string{"Authorization": "Bearer k2"}, "k2"},
		{"basic ignored", map[string]string{"Authorization": "Basic abc"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			if got := requestKey(req); got != tt.want {
				t.Errorf("requestKey = %q, want %q", got, tt.want)
			}
		})
	}
}
