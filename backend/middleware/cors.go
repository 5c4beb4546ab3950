package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/utils"
)

// CustomErrorHandler answers JSON for API paths and an HTML page otherwise.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if isAPIRequest(c) {
		return utils.SendError(c, code, errorCode(code), message, nil)
	}

	if renderErr := utils.RenderPage(c, code, "error.html", fiber.Map{
		"Code":    code,
		"Message": message,
	}); renderErr != nil {
		return c.Status(code).SendString(message)
	}
	return nil
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMIT_EXCEEDED"
	}
	return "INTERNAL_SERVER_ERROR"
}

// SecurityHeaders adds security headers to responses
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if !strings.HasPrefix(c.Path(), "/qr/") {
			c.Set("Content-Security-Policy",
				"default-src 'self'; "+
					"script-src 'self' 'unsafe-inline'; "+
					"style-src 'self' 'unsafe-inline'; "+
					"img-src 'self' data: https://cdn.discordapp.com; "+
					"connect-src 'self';")
		}

		return c.Next()
	}
}

// isAPIRequest checks if the request is an API request
func isAPIRequest(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), "/api/") {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
