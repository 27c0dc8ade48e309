package gateway

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterCleanupInterval = 5 * time.Minute

// clientIP is the first X-Forwarded-For hop, then X-Real-IP, then the peer
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// loginLimiter throttles login attempts per client IP
type loginLimiter struct {
	limiters    sync.Map // map[string]*rate.Limiter
	rate        rate.Limit
	burst       int
	perMinute   int
	mu          sync.Mutex
	lastCleanup time.Time
}

func newLoginLimiter(perMinute, burst int) *loginLimiter {
	return &loginLimiter{
		rate:        rate.Limit(float64(perMinute) / time.Minute.Seconds()),
		burst:       burst,
		perMinute:   perMinute,
		lastCleanup: time.Now(),
	}
}

func (l *loginLimiter) limiter(key string) *rate.Limiter {
	if limiter, ok := l.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	actual, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(l.rate, l.burst))
	l.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose bucket has refilled, i.e. idle clients
func (l *loginLimiter) maybeCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if time.Since(l.lastCleanup) < limiterCleanupInterval {
		return
	}
	l.lastCleanup = time.Now()
	l.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(l.burst) {
			l.limiters.Delete(key)
		}
		return true
	})
}

// RateLimitMiddleware answers 429 once a client exceeds the login rate
func (g *Gateway) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		limiter := g.limiter.limiter(key)
		if !limiter.Allow() {
			reservation := limiter.Reserve()
			delay := reservation.Delay()
			reservation.Cancel()

			g.metrics.rateLimited.Inc()
			g.log.Warn().Str("client", key).Str("path", r.URL.Path).Msg("Login rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(max(int(delay.Seconds()), 1)))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(g.limiter.perMinute))
			writeMessage(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
