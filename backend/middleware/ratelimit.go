package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/utils"
)

// RateLimiter is a sliding window limiter keyed by client address.
type RateLimiter struct {
	requests map[string][]time.Time
	mutex    sync.Mutex
	window   time.Duration
	limit    int
	now      func() time.Time
	lastGC   time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
		now:      time.Now,
	}
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	if now.Sub(rl.lastGC) > rl.window {
		rl.collect(cutoff)
		rl.lastGC = now
	}

	valid := prune(rl.requests[key], cutoff)
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

func (rl *RateLimiter) collect(cutoff time.Time) {
	for key, requests := range rl.requests {
		if valid := prune(requests, cutoff); len(valid) == 0 {
			delete(rl.requests, key)
		} else {
			rl.requests[key] = valid
		}
	}
}

func prune(requests []time.Time, cutoff time.Time) []time.Time {
	valid := requests[:0]
	for _, req := range requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	return valid
}

// RateLimit middleware limits requests per IP address
func RateLimit(limit int, window time.Duration) fiber.Handler {
	limiter := NewRateLimiter(limit, window)

	return func(c *fiber.Ctx) error {
		ip := utils.GetIPAddress(c)

		if !limiter.Allow(ip) {
			slog.Warn("Rate limit exceeded",
				slog.String("type", "web"),
				slog.String("ip", ip),
				slog.String("path", c.Path()),
				slog.Int("limit", limit),
				slog.Duration("window", window))

			return utils.SendError(c, fiber.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests. Please try again later.", nil)
		}

		return c.Next()
	}
}

// AuthRateLimit limits OAuth logins.
func AuthRateLimit() fiber.Handler {
	return RateLimit(10, time.Minute)
}

// CheckinRateLimit limits check-in submissions.
func CheckinRateLimit() fiber.Handler {
	return RateLimit(20, time.Minute)
}

// APIRateLimit middleware limits dashboard API requests
func APIRateLimit() fiber.Handler {
	return RateLimit(100, time.Minute)
}
