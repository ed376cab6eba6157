package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/mediscribe/mediscribe_backend/config"
)

// NewLimiter builds a sliding-window limiter. Counters live in Redis when a
// client is given so that every instance shares them, otherwise in memory.
func NewLimiter(cfg config.RateLimitConfig, rdb *redis.Client) fiber.Handler {
	limit := cfg.RequestsPerWindow
	if limit <= 0 {
		limit = 20
	}
	window := time.Duration(cfg.WindowSeconds) * time.Second
	if window <= 0 {
		window = 30 * time.Second
	}

	lc := limiter.Config{
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
