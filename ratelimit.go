package contract

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware that applies a per-client token bucket,
// keyed by remote IP. Limited requests receive a 429 problem response.
// Idle buckets are pruned lazily.
func RateLimit(perSecond float64, burst int) Middleware {
	const maxIdle = 5 * time.Minute

	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
		pruned  time.Time
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
				key = host
			}

			mu.Lock()
			now := time.Now()
			if now.Sub(pruned) >= time.Minute {
				for k, b := range buckets {
					if now.Sub(b.lastSeen) > maxIdle {
						delete(buckets, k)
					}
				}
				pruned = now
			}
			b, ok := buckets[key]
			if !ok {
				b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
				buckets[key] = b
			}
			b.lastSeen = now
			mu.Unlock()

			if !b.limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeProblem(w, &Problem{Status: http.StatusTooManyRequests})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
