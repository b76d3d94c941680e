package ratelimit

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/telekom/infoasst-navshell/pkg/apiresponses"
	"github.com/telekom/infoasst-navshell/pkg/config"
	"github.com/telekom/infoasst-navshell/pkg/metrics"
	"golang.org/x/time/rate"
)

// Config holds per-client limits.
type Config struct {
	// Rate is the sustained number of requests per second for one client
	Rate float64
	// Burst is the number of requests a fresh client may send at once
	Burst int
	// IdleExpiry drops a client's bucket after this long without requests
	IdleExpiry time.Duration
	// SweepInterval is how often idle buckets are collected
	SweepInterval time.Duration
}

// DefaultConfig returns the limits used for page and navigation routes:
// 20 req/s per client, burst of 50.
func DefaultConfig() Config {
	return Config{
		Rate:          20,
		Burst:         50,
		IdleExpiry:    5 * time.Minute,
		SweepInterval: time.Minute,
	}
}

// FromConfig builds limits from the rateLimit configuration block, keeping
// defaults for anything unset or non-positive.
func FromConfig(cfg config.RateLimit) Config {
	c := DefaultConfig()
	if cfg.Rate > 0 {
		c.Rate = cfg.Rate
	}
	if cfg.Burst > 0 {
		c.Burst = cfg.Burst
	}
	c.IdleExpiry = config.Duration(cfg.IdleExpiry, c.IdleExpiry)
	return c
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter keeps one token bucket per client key and collects idle
// buckets in the background until Stop is called.
type ClientLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	config   Config
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a limiter and starts its sweeper.
func New(cfg Config) *ClientLimiter {
	def := DefaultConfig()
	if cfg.IdleExpiry <= 0 {
		cfg.IdleExpiry = def.IdleExpiry
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	cl := &ClientLimiter{
		buckets: make(map[string]*bucket),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go cl.sweep()
	return cl
}

// Allow takes a token for key. When the bucket is empty it reports false and
// how long the client should wait before the next token is available.
func (cl *ClientLimiter) Allow(key string) (bool, time.Duration) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	b, ok := cl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(cl.config.Rate), cl.config.Burst)}
		cl.buckets[key] = b
	}
	b.lastSeen = now

	if b.limiter.AllowN(now, 1) {
		return true, 0
	}
	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// Middleware limits requests by client IP. Rejections are counted under the
// matched route and answered with a JSON 429.
func (cl *ClientLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := cl.Allow(c.ClientIP())
		if ok {
			c.Next()
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RateLimited.WithLabelValues(route).Inc()
		apiresponses.RespondTooManyRequests(c, retryAfter)
		c.Abort()
	}
}

// Stop ends the sweeper. It is safe to call more than once.
func (cl *ClientLimiter) Stop() {
	cl.stopOnce.Do(func() { close(cl.done) })
}

func (cl *ClientLimiter) sweep() {
	ticker := time.NewTicker(cl.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cl.done:
			return
		case now := <-ticker.C:
			cl.evictIdle(now)
		}
	}
}

func (cl *ClientLimiter) evictIdle(now time.Time) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	for key, b := range cl.buckets {
		if now.Sub(b.lastSeen) > cl.config.IdleExpiry {
			delete(cl.buckets, key)
		}
	}
}

// Clients returns the number of tracked client buckets.
func (cl *ClientLimiter) Clients() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.buckets)
}

// Config returns the effective limits.
func (cl *ClientLimiter) Config() Config {
	return cl.config
}
