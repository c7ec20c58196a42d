package server

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

// requestID tags every request with an id, reusing the caller's when given.
func requestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := c.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(headerRequestID, id)
		c.Locals(headerRequestID, id)
		return c.Next()
	}
}

func accessLog(log *slog.Logger) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		id, _ := c.Locals(headerRequestID).(string)
		log.Info("request",
			"id", id,
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start),
			"bytes", len(c.Body()))
		return err
	}
}
