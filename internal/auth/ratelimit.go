package auth

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/lunagic/agora/internal/apperror"
	"github.com/lunagic/poseidon/poseidon"
	"golang.org/x/time/rate"
)

const maxIdle = time.Hour

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client address. Buckets idle
// long enough to have refilled completely are swept, so the map only holds
// recently active clients.
type RateLimiter struct {
	clients   map[string]*clientBucket
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	idleAfter time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	idleAfter := maxIdle
	if perSecond > 0 {
		idleAfter = min(maxIdle, time.Duration(float64(burst)/perSecond*float64(time.Second)))
	}

	return &RateLimiter{
		clients:   map[string]*clientBucket{},
		rate:      rate.Limit(perSecond),
		burst:     burst,
		idleAfter: max(idleAfter, time.Second),
		now:       time.Now,
	}
}

func (limiter *RateLimiter) limiter(client string) *rate.Limiter {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.now()
	if now.Sub(limiter.lastSweep) >= limiter.idleAfter {
		limiter.sweep(now)
	}

	bucket, exists := limiter.clients[client]
	if !exists {
		bucket = &clientBucket{limiter: rate.NewLimiter(limiter.rate, limiter.burst)}
		limiter.clients[client] = bucket
	}
	bucket.lastSeen = now

	return bucket.limiter
}

// sweep must be called with mu held.
func (limiter *RateLimiter) sweep(now time.Time) {
	for client, bucket := range limiter.clients {
		if now.Sub(bucket.lastSeen) >= limiter.idleAfter {
			delete(limiter.clients, client)
		}
	}

	limiter.lastSweep = now
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func (limiter *RateLimiter) Middleware() poseidon.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.limiter(clientAddress(r)).Allow() {
				apperror.Respond(w, r, apperror.TooManyRequests("Too many requests, slow down"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
