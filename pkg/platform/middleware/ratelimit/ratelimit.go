// Package ratelimit throttles write endpoints per authenticated user (falling
// back to client IP) with token buckets.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/httputil"
	request "habitat/pkg/platform/middleware/request"
	"habitat/pkg/requestcontext"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per caller key.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	logger  *slog.Logger
}

type Option func(*Limiter)

// WithIdleTTL controls how long an unused bucket is retained.
func WithIdleTTL(d time.Duration) Option {
	return func(l *Limiter) {
		l.idleTTL = d
	}
}

// New creates a limiter allowing perSecond events with the given burst.
// A non-positive perSecond disables limiting.
func New(perSecond float64, burst int, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*entry),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes a token for key.
func (l *Limiter) Allow(key string, now time.Time) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Prune drops buckets idle for longer than the TTL and returns how many.
func (l *Limiter) Prune(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for k, e := range l.buckets {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
			removed++
		}
	}
	return removed
}

// Middleware rejects callers that exhausted their bucket with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := "ip:" + requestcontext.ClientIP(ctx)
		if uid := requestcontext.UserID(ctx); !uid.IsNil() {
			key = "user:" + uid.String()
		}
		if !l.Allow(key, requestcontext.Now(ctx)) {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"request_id", request.GetRequestID(ctx),
			)
			retry := 1
			if l.limit > 0 {
				retry = max(1, int(1/float64(l.limit)))
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
