package security

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const HeaderRequestID = "X-Request-ID"

type HeadersConfig struct {
	IsDevelopment bool
	HSTSMaxAge    int
}

// HeadersMiddleware sets hardening headers suited to a JSON-only API and
// tags every response with a request id, reusing the caller's if present.
func HeadersMiddleware(cfg HeadersConfig) fiber.Handler {
	if cfg.HSTSMaxAge <= 0 {
		cfg.HSTSMaxAge = 31536000
	}
	hsts := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge) + "; includeSubDomains"

	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Locals("request_id", requestID)
		c.Set(HeaderRequestID, requestID)

		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Set("Cache-Control", "no-store")

		if !cfg.IsDevelopment {
			c.Set("Strict-Transport-Security", hsts)
		}

		return c.Next()
	}
}
