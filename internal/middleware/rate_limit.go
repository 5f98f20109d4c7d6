// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/carlane/carlane-backend/internal/config"
	"github.com/carlane/carlane-backend/internal/utils"
)

const clientIdleEviction = 3 * time.Minute

// client is one remote address's token bucket plus the timestamp used to
// evict it once it goes idle.
type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type ipLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	l := &ipLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   burst,
	}
	go l.evictIdle()
	return l
}

func (l *ipLimiter) evictIdle() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		l.mu.Lock()
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > clientIdleEviction {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	return c.bucket.Allow()
}

func (l *ipLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, please slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimiters bundles the three per-IP tiers. The budgets come from
// configuration so deployments can tune them without a rebuild.
type RateLimiters struct {
	general *ipLimiter
	auth    *ipLimiter
	upload  *ipLimiter
}

func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	return &RateLimiters{
		general: newIPLimiter(rate.Limit(atLeastOne(cfg.GeneralPerSecond)), atLeastOne(cfg.GeneralBurst)),
		auth:    newIPLimiter(perMinute(cfg.AuthPerMinute), atLeastOne(cfg.AuthPerMinute)),
		upload:  newIPLimiter(perMinute(cfg.UploadPerMinute), atLeastOne(cfg.UploadPerMinute)),
	}
}

func (r *RateLimiters) General() gin.HandlerFunc { return r.general.handler() }

func (r *RateLimiters) Auth() gin.HandlerFunc { return r.auth.handler() }

func (r *RateLimiters) Upload() gin.HandlerFunc { return r.upload.handler() }

func perMinute(n int) rate.Limit {
	return rate.Every(time.Minute / time.Duration(atLeastOne(n)))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
