package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	pasetotoken "github.com/Alijeyrad/staylink_backend/pkg/paseto"
)

// NewLimiterWithRedis is the global per-IP limiter.
func NewLimiterWithRedis(rdb *redis.Client) fiber.Handler {
	storage := fiberredis.NewFromConnection(rdb)
	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               20,
		Expiration:        30 * time.Second,
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

// NewCheckoutLimiter throttles checkout per authenticated user so a stuck
// client retrying in a loop cannot hammer the payment gateway. It must run
// after AuthRequired.
func NewCheckoutLimiter(rdb *redis.Client, max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Storage:    fiberredis.NewFromConnection(rdb),
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c fiber.Ctx) string {
			if claims, ok := pasetotoken.ClaimsFromFiber(c); ok {
				return "checkout:" + claims.UserID.String()
			}
			return "checkout:ip:" + c.IP()
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}
