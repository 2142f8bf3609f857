package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/styledna/api/pkg/response"
)

// RateLimiter implements fixed-window limits on Redis counters. One
// INCR per request; the window starts when the first request lands.
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redisClient}
}

// Limit builds a middleware keyed by the authenticated user.
func (rl *RateLimiter) Limit(keyPrefix string, maxRequests int, window time.Duration) fiber.Handler {
	return rl.limitBy(keyPrefix, maxRequests, window, GetUserID)
}

func (rl *RateLimiter) limitBy(keyPrefix string, maxRequests int, window time.Duration, keyFn func(*fiber.Ctx) string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := keyFn(c)
		if id == "" {
			// No key to count against; the auth layer rejects these
			// requests on its own.
			return c.Next()
		}

		key := fmt.Sprintf("ratelimit:%s:%s", keyPrefix, id)
		ctx := c.UserContext()

		count, err := rl.redis.Incr(ctx, key).Result()
		if err != nil {
			// Redis trouble must not take the API down with it.
			return c.Next()
		}
		if count == 1 {
			rl.redis.Expire(ctx, key, window)
		}

		if count > int64(maxRequests) {
			ttl, _ := rl.redis.TTL(ctx, key).Result()
			c.Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			return response.RateLimited(c)
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-int(count)))

		return c.Next()
	}
}

// OutfitsLimit guards outfit generation, the LLM-backed endpoint.
func (rl *RateLimiter) OutfitsLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("outfits", maxPerHour, time.Hour)
}

// VisualizeLimit guards visualization job submission.
func (rl *RateLimiter) VisualizeLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("visualize", maxPerHour, time.Hour)
}

// UploadLimit guards the image upload endpoints.
func (rl *RateLimiter) UploadLimit(maxPerHour int) fiber.Handler {
	return rl.Limit("upload", maxPerHour, time.Hour)
}

// SMSLimit rate limits the inbound webhook per sender number, since
// the webhook runs outside JWT auth.
func (rl *RateLimiter) SMSLimit(maxPerMin int) fiber.Handler {
	return rl.limitBy("sms", maxPerMin, time.Minute, func(c *fiber.Ctx) string {
		return c.FormValue("From")
	})
}
