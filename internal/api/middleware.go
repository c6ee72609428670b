package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"vehicleids/internal/auth"
	"vehicleids/internal/logger"
)

const (
	limiterIdle  = 5 * time.Minute
	sweepEvery   = 1024
	claimsCtxKey = "operator_claims"
)

// RateLimitConfig sets the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	inserts  int
	now      func() time.Time
}

// NewRateLimiter creates a limiter. A zero burst defaults to twice the rate.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = int(2 * cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	return &RateLimiter{
		cfg:      cfg,
		limiters: make(map[string]*clientLimiter),
		now:      time.Now,
	}
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cl, ok := rl.limiters[ip]
	if !ok {
		rl.inserts++
		if rl.inserts%sweepEvery == 0 {
			rl.sweep(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for ip, cl := range rl.limiters {
		if now.Sub(cl.lastSeen) > limiterIdle {
			delete(rl.limiters, ip)
		}
	}
}

// RateLimitMiddleware rejects clients over their budget with 429.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.Allow(ip) {
			logger.Debugf("Rate limit exceeded for %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// OperatorAuthMiddleware requires a valid bearer token.
func OperatorAuthMiddleware(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := svc.Validate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			logger.Warnf("Rejected operator request from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(claimsCtxKey, claims)
		c.Next()
	}
}
