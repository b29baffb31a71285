package http

import (
	"context"

	"theia-geo/internal/shared/contextkeys"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request correlation id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestIDMiddleware tags every request with a correlation id. An inbound
// X-Request-ID is honored so upstream proxies can trace through; otherwise a
// fresh uuid is minted. The id rides the user context for the logger.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		c.SetUserContext(context.WithValue(c.UserContext(), contextkeys.RequestIDKey, requestID))
		c.Set(HeaderRequestID, requestID)
		return c.Next()
	}
}
