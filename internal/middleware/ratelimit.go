package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket is a single token bucket.
type bucket struct {
	mu         sync.Mutex
	capacity   int
	tokens     int
	refillRate int // tokens per second
	lastRefill time.Time
}

func newBucket(capacity, refillRate int) *bucket {
	return &bucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// take refills by elapsed time and consumes one token when available.
func (b *bucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if add := int(elapsed * float64(b.refillRate)); add > 0 {
		b.tokens += add
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Limiter keeps one bucket per caller key.
type Limiter struct {
	mu         sync.RWMutex
	buckets    map[string]*bucket
	capacity   int
	refillRate int
}

func NewLimiter(capacity, refillRate int) *Limiter {
	l := &Limiter{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
	}
	go l.cleanup()
	return l
}

func (l *Limiter) Allow(key string) bool {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b.take()
	}

	l.mu.Lock()
	if b, ok = l.buckets[key]; !ok {
		b = newBucket(l.capacity, l.refillRate)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.take()
}

// cleanup drops buckets idle for ten minutes.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, b := range l.buckets {
			b.mu.Lock()
			idle := now.Sub(b.lastRefill) > 10*time.Minute
			b.mu.Unlock()
			if idle {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit limits requests per authenticated key and source address.
// capacity is the burst size, refillRate the sustained tokens per
// second.
func RateLimit(capacity, refillRate int) func(http.Handler) http.Handler {
	limiter := NewLimiter(capacity, refillRate)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health probes are exempt
			if r.URL.Path == "/health" || r.URL.Path == "/live" {
				next.ServeHTTP(w, r)
				return
			}

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			key := GetKeyNameFromContext(r.Context()) + ":" + host

			if !limiter.Allow(key) {
				w.Header().Set("Retry-After", "60")
				http.Error(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
