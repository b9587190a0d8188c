package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL is how long a client may stay silent before its bucket
	// is dropped. A fresh bucket starts full, so it must exceed the time the
	// bucket needs to refill.
	limiterIdleTTL = 10 * time.Minute
	sweepInterval  = time.Minute
)

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address and forgets
// clients idle for longer than limiterIdleTTL.
type clientLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientEntry
	r         rate.Limit
	b         int
	now       func() time.Time
	lastSweep time.Time
}

func newClientLimiter(r rate.Limit, b int) *clientLimiter {
	return &clientLimiter{
		clients: make(map[string]*clientEntry),
		r:       r,
		b:       b,
		now:     time.Now,
	}
}

func (c *clientLimiter) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= sweepInterval {
		c.sweep(now)
	}

	entry, ok := c.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(c.r, c.b)}
		c.clients[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops idle clients. Callers hold mu.
func (c *clientLimiter) sweep(now time.Time) {
	for key, entry := range c.clients {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(c.clients, key)
		}
	}
	c.lastSweep = now
}

// rateLimit answers 429 once a client address runs out of tokens.
func rateLimit(r rate.Limit, b int) func(http.Handler) http.Handler {
	return newClientLimiter(r, b).middleware
}

func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			host = req.RemoteAddr
		}
		if !c.get(host).Allow() {
			writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate_limited", Message: "too many requests"})
			return
		}
		next.ServeHTTP(w, req)
	})
}
