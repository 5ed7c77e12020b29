// middleware/ratelimit.go
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Two rate-limit tiers, per client IP: a loose global ceiling, and a tight
// one on the action routes that do signature checks and store writes.
const (
	globalMaxPerMinute = 200
	actionMaxPerMinute = 20
)

func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        globalMaxPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		},
	})
}

func ActionRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        actionMaxPerMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "action rate limit exceeded, slow down",
			})
		},
	})
}
