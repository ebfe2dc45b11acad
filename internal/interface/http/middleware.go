package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/synergy-circle/internal/infra/config"
	"github.com/yanqian/synergy-circle/pkg/metrics"
	"github.com/yanqian/synergy-circle/pkg/util"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestLogger tags every request with an id, logs it once finished and
// feeds the request counter. A nil collector only disables the counter.
func requestLogger(logger *slog.Logger, collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header(requestIDHeader, requestID)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		logger.Info("http request",
			"request_id", requestID,
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		)
		collector.ObserveRequest(c.Request.Method, route, strconv.Itoa(status))
	}
}

// errorHandlingMiddleware renders the last aborted HTTPError as {"error": {code, message}}.
func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = http.StatusText(httpErr.Status)
		}

		attrs := []any{
			"request_id", c.GetString(requestIDKey),
			"code", httpErr.Code,
			"status", httpErr.Status,
			"path", c.Request.URL.Path,
			"error", httpErr.Err,
		}
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}

		if httpErr.RetryAfter > 0 {
			seconds := int(math.Ceil(httpErr.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
		}
		c.JSON(httpErr.Status, gin.H{
			"error": gin.H{
				"code":    httpErr.Code,
				"message": message,
			},
		})
	}
}

// rateLimitMiddleware applies a per-client token bucket. Each call builds an
// independent limiter, so the API and the web form are budgeted separately.
func rateLimitMiddleware(scope string, cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newIPRateLimiter(cfg, util.NowUTC)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		wait, ok := limiter.allow(ip)
		if ok {
			c.Next()
			return
		}
		logger.Warn("rate limit exceeded", "scope", scope, "ip", ip, "path", c.Request.URL.Path)
		httpErr := NewHTTPError(http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests, slow down", nil)
		httpErr.RetryAfter = wait
		abortWithError(c, httpErr)
	}
}

type ipRateLimiter struct {
	mu            sync.Mutex
	clients       map[string]*bucket
	ratePerMinute float64
	burst         float64
	idleTTL       time.Duration
	now           util.Clock
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

func newIPRateLimiter(cfg config.RateLimitConfig, now util.Clock) *ipRateLimiter {
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return &ipRateLimiter{
		clients:       make(map[string]*bucket),
		ratePerMinute: float64(cfg.RequestsPerMinute),
		burst:         burst,
		idleTTL:       5 * time.Minute,
		now:           now.OrNow(),
	}
}

// allow spends one token for ip. When the bucket is empty it reports how long
// until the next token is available.
func (l *ipRateLimiter) allow(ip string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients[ip]
	if !ok {
		b = &bucket{tokens: l.burst, lastSeen: now}
		l.clients[ip] = b
	} else {
		if elapsed := now.Sub(b.lastSeen).Minutes(); elapsed > 0 {
			b.tokens = math.Min(l.burst, b.tokens+elapsed*l.ratePerMinute)
		}
		b.lastSeen = now
	}
	l.evictIdleLocked(now)

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return time.Duration(missing * float64(time.Minute) / l.ratePerMinute), false
	}
	b.tokens--
	return 0, true
}

func (l *ipRateLimiter) evictIdleLocked(now time.Time) {
	for ip, b := range l.clients {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.clients, ip)
		}
	}
}
