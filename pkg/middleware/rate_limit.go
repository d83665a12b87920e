package middleware

import (
	"net/http"
	"sync"
	"time"

	apperrors "detailbook/pkg/errors"
	httputil "detailbook/pkg/http"
	"detailbook/pkg/logger"
	"detailbook/pkg/sanitizer"

	"golang.org/x/time/rate"
)

const PhoneHeader = "X-Phone-Number"

type PhoneExtractor func(r *http.Request) string

type phoneLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PhoneRateLimiter keeps one token bucket per caller phone. Keys are
// normalized to E.164 so "(555) 123-4567" and "+15551234567" share a bucket.
type PhoneRateLimiter struct {
	limiters       sync.Map // map[string]*phoneLimiter
	mu             sync.Mutex
	rate           rate.Limit
	burst          int
	idleAfter      time.Duration
	defaultCountry string
	phoneExtractor PhoneExtractor
	log            *logger.Logger
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewPhoneRateLimiter allows limit requests per window for each phone, with
// a burst of limit.
func NewPhoneRateLimiter(limit int, window time.Duration, defaultCountry string, extractor PhoneExtractor, log *logger.Logger) *PhoneRateLimiter {
	if extractor == nil {
		extractor = DefaultPhoneExtractor
	}
	limiter := &PhoneRateLimiter{
		rate:           rate.Limit(float64(limit) / window.Seconds()),
		burst:          limit,
		idleAfter:      window,
		defaultCountry: defaultCountry,
		phoneExtractor: extractor,
		log:            log,
		stopCh:         make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *PhoneRateLimiter) getLimiter(phone string) *rate.Limiter {
	now := time.Now()
	if v, ok := rl.limiters.Load(phone); ok {
		entry := v.(*phoneLimiter)
		rl.mu.Lock()
		entry.lastSeen = now
		rl.mu.Unlock()
		return entry.limiter
	}

	v, _ := rl.limiters.LoadOrStore(phone, &phoneLimiter{
		limiter:  rate.NewLimiter(rl.rate, rl.burst),
		lastSeen: now,
	})
	return v.(*phoneLimiter).limiter
}

// Allow reports whether a request from raw may proceed. Numbers that cannot
// be normalized are not limited here; handlers reject them.
func (rl *PhoneRateLimiter) Allow(raw string) bool {
	phone := sanitizer.NormalizeToE164(raw, rl.defaultCountry)
	if phone == "" {
		return true
	}
	return rl.getLimiter(phone).Allow()
}

func (rl *PhoneRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.idleAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PhoneRateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.limiters.Range(func(key, value any) bool {
		if now.Sub(value.(*phoneLimiter).lastSeen) > rl.idleAfter {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *PhoneRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func PhoneRateLimit(limiter *PhoneRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := limiter.phoneExtractor(r)

			if phone != "" && !limiter.Allow(phone) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"phone", sanitizer.NormalizeToE164(phone, limiter.defaultCountry),
					"path", r.URL.Path,
				)
				_ = httputil.WriteError(w, apperrors.RateLimited("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func DefaultPhoneExtractor(r *http.Request) string {
	return r.Header.Get(PhoneHeader)
}
