package middleware

import (
	"log"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"
)

// RateLimiter implements a per-client token bucket. Rendering is CPU heavy, so
// every uncached render route sits behind one.
type RateLimiter struct {
	mu              sync.Mutex
	requestsPerMin  int
	clients         map[string]*clientBucket
	lockoutDuration time.Duration
	maxViolations   int
	trustedProxies  []netip.Prefix
	now             func() time.Time
	stop            chan struct{}
	stopOnce        sync.Once
}

// clientBucket tracks tokens and violations for a single client (IP)
type clientBucket struct {
	tokens      int
	lastRefill  time.Time
	lastSeen    time.Time
	violations  int
	lockedUntil time.Time
}

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
	LockoutDuration   time.Duration
	MaxViolations     int
	TrustedProxies    []netip.Prefix
}

// NewRateLimiter creates a rate limiter and starts its background cleanup.
// Call Stop to release it.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.CleanupInterval == 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxViolations == 0 {
		config.MaxViolations = 10
	}

	rl := &RateLimiter{
		requestsPerMin:  config.RequestsPerMinute,
		clients:         make(map[string]*clientBucket),
		lockoutDuration: config.LockoutDuration,
		maxViolations:   config.MaxViolations,
		trustedProxies:  config.TrustedProxies,
		now:             func() time.Time { return time.Now().UTC() },
		stop:            make(chan struct{}),
	}

	go rl.cleanupLoop(config.CleanupInterval)

	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware returns an HTTP middleware function
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := ClientIP(r, rl.trustedProxies)

			allowed, remaining, resetTime := rl.Allow(clientIP)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

			if !allowed {
				log.Printf("Rate limit exceeded for IP: %s on %s", clientIP, r.URL.Path)
				retry := int(resetTime.Sub(rl.now()).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, "Too many requests. Please try again later.", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Allow checks if a request from the given client IP is allowed
// Returns: (allowed bool, remaining tokens, reset time)
func (rl *RateLimiter) Allow(clientIP string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.clients[clientIP]
	if !exists {
		bucket = &clientBucket{tokens: rl.requestsPerMin, lastRefill: now}
		rl.clients[clientIP] = bucket
	}
	bucket.lastSeen = now

	if !bucket.lockedUntil.IsZero() {
		if now.Before(bucket.lockedUntil) {
			return false, 0, bucket.lockedUntil
		}
		bucket.lockedUntil = time.Time{}
		bucket.violations = 0
	}

	// Full refill every minute, proportional refill in between
	elapsed := now.Sub(bucket.lastRefill)
	if elapsed >= time.Minute {
		bucket.tokens = rl.requestsPerMin
		bucket.lastRefill = now
	} else if add := int(float64(rl.requestsPerMin) * elapsed.Seconds() / 60.0); add > 0 {
		bucket.tokens = min(bucket.tokens+add, rl.requestsPerMin)
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true, bucket.tokens, bucket.lastRefill.Add(time.Minute)
	}

	bucket.violations++
	if rl.lockoutDuration > 0 && bucket.violations >= rl.maxViolations {
		bucket.lockedUntil = now.Add(rl.lockoutDuration)
		log.Printf("Client %s locked out until %v after %d violations",
			clientIP, bucket.lockedUntil, bucket.violations)
		return false, 0, bucket.lockedUntil
	}

	return false, 0, bucket.lastRefill.Add(time.Minute)
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup removes client buckets that haven't been used recently
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	const staleThreshold = 10 * time.Minute

	for ip, bucket := range rl.clients {
		locked := !bucket.lockedUntil.IsZero() && now.Before(bucket.lockedUntil)
		if !locked && now.Sub(bucket.lastSeen) > staleThreshold {
			delete(rl.clients, ip)
		}
	}
}
