package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logger to the user context and
// writes one line per request once the handler chain returns.
func RequestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()

		requestID := c.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDHeader, requestID)

		logger := base.With().Str("request_id", requestID).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext()))

		chainErr := c.Next()
		if chainErr != nil {
			if handlerErr := c.App().ErrorHandler(c, chainErr); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		event := zerolog.Ctx(c.UserContext()).Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = zerolog.Ctx(c.UserContext()).Error().Err(chainErr)
		case status >= fiber.StatusBadRequest:
			event = zerolog.Ctx(c.UserContext()).Warn()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Str("ip", c.IP()).
			Msg("request")

		return nil
	}
}
