package webhook

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorTTL is how long an idle client keeps its limiter before the entry is
// pruned.
const visitorTTL = 5 * time.Minute

// RateLimiter throttles webhook deliveries per remote client.
type RateLimiter struct {
	ratePerSecond float64
	burst         int
	logger        *slog.Logger
	now           func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastPrune time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter builds a limiter. A non-positive rate disables throttling.
func NewRateLimiter(ratePerSecond float64, burst int, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		ratePerSecond: ratePerSecond,
		burst:         burst,
		logger:        logger,
		now:           time.Now,
		visitors:      make(map[string]*visitor),
	}
}

// Middleware rejects over-limit requests with 429. The platform treats 429 as
// a transient failure and redelivers, so shedding load here is safe.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.ratePerSecond <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		id := clientID(r)
		if !rl.limiterFor(id).Allow() {
			rl.logger.Warn("webhook delivery throttled", "client", id)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiterFor(id string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.pruneLocked(now)
	v, ok := rl.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.ratePerSecond), rl.burst)}
		rl.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter
}

// pruneLocked drops visitors idle past the TTL. Runs at most once per TTL so
// the sweep cost stays off the hot path.
func (rl *RateLimiter) pruneLocked(now time.Time) {
	if now.Sub(rl.lastPrune) < visitorTTL {
		return
	}
	rl.lastPrune = now
	for id, v := range rl.visitors {
		if now.Sub(v.lastSeen) >= visitorTTL {
			delete(rl.visitors, id)
		}
	}
}

func clientID(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		if first, _, found := strings.Cut(forwarded, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
