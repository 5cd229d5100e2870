package httpapi

import (
	"fmt"
	"math"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// maxClients bounds the limiter table; it is cleared when full.
const maxClients = 10000

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter allows each client rps requests per second with bursts of
// up to burst requests.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   max(1, burst),
		clients: make(map[string]*rate.Limiter),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= maxClients {
			clear(rl.clients)
		}
		l = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients[key] = l
	}
	return l
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.limiter(key).Allow()
}

// Middleware rejects requests over the limit with 429. Clients are keyed by
// RemoteAddr, which middleware.RealIP rewrites from proxy headers.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientKey(r)) {
			retryAfter := 1
			if rl.limit > 0 {
				retryAfter = max(1, int(math.Ceil(1/float64(rl.limit))))
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			RespondError(w, r, &Error{
				Code:    "RATE_LIMITED",
				Message: "too many requests, try again later",
				Status:  http.StatusTooManyRequests,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host := r.RemoteAddr
	for i := len(host) - 1; i >= 0; i-- {
		if host[i] == ':' {
			return host[:i]
		}
		if host[i] == ']' {
			break
		}
	}
	return host
}
