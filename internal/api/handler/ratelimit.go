package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

type clientBucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// clientBuckets holds one token bucket per client address.
type clientBuckets struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	buckets map[string]*clientBucket
}

// reserve takes a token for addr and reports how long the caller would have
// to wait for it. A zero wait means the request may proceed.
func (b *clientBuckets) reserve(addr string, now time.Time) time.Duration {
	b.mu.Lock()
	cb, ok := b.buckets[addr]
	if !ok {
		cb = &clientBucket{tokens: rate.NewLimiter(b.rps, b.burst)}
		b.buckets[addr] = cb
	}
	cb.lastSeen = now
	b.mu.Unlock()

	r := cb.tokens.ReserveN(now, 1)
	if !r.OK() {
		return time.Second
	}
	wait := r.DelayFrom(now)
	if wait > 0 {
		// A rejected request must not consume the token.
		r.CancelAt(now)
	}
	return wait
}

func (b *clientBuckets) sweep(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for addr, cb := range b.buckets {
		if now.Sub(cb.lastSeen) > limiterIdleTimeout {
			delete(b.buckets, addr)
		}
	}
}

// RateLimiter returns a Gin middleware that applies a token bucket per client
// IP. rps is the sustained rate and burst the bucket size. Buckets idle for
// ten minutes are dropped by a sweeper that runs until ctx is done.
func RateLimiter(ctx context.Context, rps, burst int) gin.HandlerFunc {
	b := &clientBuckets{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*clientBucket),
	}

	go func() {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				b.sweep(now)
			}
		}
	}()

	return func(c *gin.Context) {
		wait := b.reserve(c.ClientIP(), time.Now())
		if wait > 0 {
			secs := int(math.Ceil(wait.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
