package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalfonso89/currency-converter/internal/config"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	idleExpiry      = 24 * time.Hour
)

// Limiter keeps one token bucket per client IP
type Limiter struct {
	Configuration *config.Config
	logger        logrus.FieldLogger

	clientBuckets map[string]*clientBucket
	bucketsMutex  sync.Mutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup goroutine.
func NewLimiter(configuration *config.Config, logger logrus.FieldLogger) *Limiter {
	rateLimiter := &Limiter{
		Configuration: configuration,
		logger:        logger,
		clientBuckets: make(map[string]*clientBucket),
		cleanupTicker: time.NewTicker(cleanupInterval),
		stopCleanup:   make(chan struct{}),
	}

	go rateLimiter.cleanup()

	return rateLimiter
}

// Allow reports whether clientIP may make another request now
func (rateLimiter *Limiter) Allow(clientIP string) bool {
	if !rateLimiter.Configuration.RateLimitEnabled {
		return true
	}

	rateLimiter.bucketsMutex.Lock()
	bucket, exists := rateLimiter.clientBuckets[clientIP]
	if !exists {
		bucket = &clientBucket{limiter: rate.NewLimiter(rateLimiter.refillRate(), rateLimiter.Configuration.RateLimitBurst)}
		rateLimiter.clientBuckets[clientIP] = bucket
	}
	bucket.lastSeen = time.Now()
	rateLimiter.bucketsMutex.Unlock()

	return bucket.limiter.Allow()
}

// refillRate spreads RateLimitRequests evenly over RateLimitWindow.
func (rateLimiter *Limiter) refillRate() rate.Limit {
	window := rateLimiter.Configuration.RateLimitWindow
	if window <= 0 || rateLimiter.Configuration.RateLimitRequests <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(rateLimiter.Configuration.RateLimitRequests) / window.Seconds())
}

// GetClientIP extracts the real client IP from the request
func (rateLimiter *Limiter) GetClientIP(request *http.Request) string {
	if xForwardedFor := request.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		// first entry is the originating client
		first := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if clientIP := net.ParseIP(first); clientIP != nil {
			return clientIP.String()
		}
		if host, _, err := net.SplitHostPort(first); err == nil {
			if clientIP := net.ParseIP(host); clientIP != nil {
				return clientIP.String()
			}
		}
	}

	if xRealIP := request.Header.Get("X-Real-IP"); xRealIP != "" {
		if clientIP := net.ParseIP(strings.TrimSpace(xRealIP)); clientIP != nil {
			return clientIP.String()
		}
	}

	clientIP, _, parseError := net.SplitHostPort(request.RemoteAddr)
	if parseError != nil {
		return request.RemoteAddr
	}
	return clientIP
}

// cleanup drops buckets idle for a day
func (rateLimiter *Limiter) cleanup() {
	for {
		select {
		case <-rateLimiter.cleanupTicker.C:
			rateLimiter.bucketsMutex.Lock()
			cutoff := time.Now().Add(-idleExpiry)
			removed := 0
			for clientIP, bucket := range rateLimiter.clientBuckets {
				if bucket.lastSeen.Before(cutoff) {
					delete(rateLimiter.clientBuckets, clientIP)
					removed++
				}
			}
			rateLimiter.bucketsMutex.Unlock()
			if removed > 0 {
				rateLimiter.logger.Debugf("rate limiter dropped %d idle clients", removed)
			}
		case <-rateLimiter.stopCleanup:
			rateLimiter.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rateLimiter *Limiter) Stop() {
	rateLimiter.stopOnce.Do(func() { close(rateLimiter.stopCleanup) })
}
