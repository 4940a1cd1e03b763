package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vanshavali/familytree/common/ratelimit"
)

// AuthRateLimitMiddleware limits unauthenticated auth attempts per client address.
// Fails open when the limiter errors.
func AuthRateLimitMiddleware(limiter ratelimit.Checker, limit int64, windowSec int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := ratelimit.AuthKey(c.RealIP())

			result, err := limiter.Check(c.Request().Context(), key, limit, windowSec)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatInt(result.RetryAfterSeconds, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "rate_limit_exceeded",
					"message": "Too many attempts. Please wait before trying again.",
					"detail": map[string]interface{}{
						"limit":               result.Limit,
						"window_seconds":      windowSec,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
