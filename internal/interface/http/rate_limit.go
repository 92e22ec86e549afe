package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yanqian/newsdigest/internal/infra/config"
	"github.com/yanqian/newsdigest/pkg/metrics"
)

const (
	idleLimiterTTL  = 5 * time.Minute
	cleanupInterval = 3 * time.Minute
)

func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newClientLimiter(cfg, time.Now)
	go limiter.cleanupLoop()
	return func(c *gin.Context) {
		key := rateLimitKey(c)
		ok, wait := limiter.allow(key)
		if ok {
			c.Next()
			return
		}
		caller, _, _ := strings.Cut(key, ":")
		metrics.RecordRateLimited(caller)
		logger.Warn("rate limit exceeded", "caller", key, "path", c.Request.URL.Path)
		c.Header("Retry-After", strconv.Itoa(max(int(math.Ceil(wait.Seconds())), 1)))
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests", nil))
	}
}

// rateLimitKey buckets authenticated callers by API client and anonymous ones by IP.
func rateLimitKey(c *gin.Context) string {
	if client := getClient(c); client != anonymousClient {
		return "key:" + client
	}
	return "ip:" + c.ClientIP()
}

type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per caller key.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientEntry
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

func newClientLimiter(cfg config.RateLimitConfig, now func() time.Time) *clientLimiter {
	return &clientLimiter{
		limiters: make(map[string]*clientEntry),
		limit:    rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute)),
		burst:    max(cfg.Burst, 1),
		now:      now,
	}
}

func (l *clientLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	limiter := rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = &clientEntry{limiter: limiter, lastSeen: now}
	return limiter
}

// allow takes a token for key. When none is available it reports how long until one is.
func (l *clientLimiter) allow(key string) (bool, time.Duration) {
	now := l.now()
	res := l.get(key, now).ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (l *clientLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		l.evictIdle(l.now())
	}
}

func (l *clientLimiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.limiters {
		if now.Sub(e.lastSeen) > idleLimiterTTL {
			delete(l.limiters, key)
		}
	}
}
