// Package ratelimit provides per-client token-bucket limiting for the HTTP
// API. Buckets live in memory keyed by client IP and are dropped after a
// period of inactivity.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apperrors "github.com/prodpulse/prodmeter/internal/errors"
)

const idleEviction = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client IP.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	rps     rate.Limit
	burst   int
	stop    chan struct{}
}

// NewLimiter creates a limiter allowing rps requests per second with the
// given burst, and starts the idle-bucket cleanup goroutine.
func NewLimiter(rps float64, burst int) *Limiter {
	l := &Limiter{
		clients: make(map[string]*client),
		rps:     rate.Limit(rps),
		burst:   burst,
		stop:    make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for ip, c := range l.clients {
				if time.Since(c.lastSeen) > idleEviction {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Allow reports whether the client may proceed.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, exists := l.clients[ip]
	if !exists {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.limiter.Allow()
}

// Close stops the cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stop)
}

// Middleware rejects over-limit clients with a structured 429.
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			slog.Warn("rate limit exceeded", "ip", ip, "path", c.Request.URL.Path)
			appErr := apperrors.NewRateLimitError("1s")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}
		c.Next()
	}
}
