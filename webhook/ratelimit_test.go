package webhook

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1, discardLogger())
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/orders", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("10.0.0.1:1234"); code != http.StatusOK {
		t.Fatalf("first request = %d, want 200", code)
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("burst-exceeding request = %d, want 429", code)
	}
	// A different client has its own bucket.
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Fatalf("other client = %d, want 200", code)
	}
}

func TestRateLimiterPrunesIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(10, 5, discardLogger())
	current := time.Now()
	rl.now = func() time.Time { return current }

	rl.limiterFor("10.0.0.1")
	rl.limiterFor("10.0.0.2")
	if got := len(rl.visitors); got != 2 {
		t.Fatalf("visitors = %d, want 2", got)
	}

	current = current.Add(visitorTTL + time.Minute)
	rl.limiterFor("10.0.0.3")

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if got := len(rl.visitors); got != 1 {
		t.Fatalf("visitors = %d after idle sweep, want 1", got)
	}
	if _, ok := rl.visitors["10.0.0.3"]; !ok {
		t.Fatal("active visitor was pruned")
	}
}
