package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/utils"
)

// probe paths are polled by load balancers and scrapers.
var probePaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// LoggingMiddleware logs HTTP requests in a structured format
func LoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// let the error handler set the final status before logging
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		statusCode := c.Response().StatusCode()
		logLevel := slog.LevelInfo
		if statusCode >= 400 && statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if statusCode >= 500 {
			logLevel = slog.LevelError
		} else if probePaths[c.Path()] {
			logLevel = slog.LevelDebug
		}

		logger := slog.With(
			slog.String("type", "web"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", statusCode),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", utils.GetIPAddress(c)),
			slog.String("user_agent", utils.GetUserAgent(c)),
			slog.Int("size", len(c.Response().Body())),
		)

		if session, ok := utils.ExtractUserSession(c); ok {
			logger = logger.With(
				slog.String("user_id", session.UserID.String()),
				slog.String("username", session.Username),
			)
		}

		message := "HTTP request processed"
		if err != nil {
			message = "HTTP request failed"
			logger = logger.With(slog.String("error", err.Error()))
		}

		logger.Log(c.Context(), logLevel, message)
		return nil
	}
}

// AuditLogMiddleware logs dashboard data access
func AuditLogMiddleware(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.String("type", "web"),
			slog.String("action", action),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", utils.GetIPAddress(c)),
		}
		if token, ok := ExtractAccessToken(c); ok {
			attrs = append(attrs,
				slog.String("user_id", token.UserID.String()),
				slog.String("username", token.Username))
		}
		slog.Info("Dashboard access", attrs...)

		return err
	}
}
