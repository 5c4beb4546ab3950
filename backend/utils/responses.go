package utils

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/models"
)

const sessionLocal = "user"

// SendJSON sends a JSON response using Fiber
func SendJSON(c *fiber.Ctx, statusCode int, data any) error {
	return c.Status(statusCode).JSON(data)
}

// SendError sends an error JSON response
func SendError(c *fiber.Ctx, statusCode int, code, message string, details map[string]string) error {
	return SendJSON(c, statusCode, models.NewErrorResponse(code, message, details))
}

// SendAttachment serves data as a downloadable file.
func SendAttachment(c *fiber.Ctx, name, contentType string, data []byte) error {
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func SetUserSession(c *fiber.Ctx, session *models.UserSession) {
	c.Locals(sessionLocal, session)
}

// ExtractUserSession extracts user session from Fiber context
func ExtractUserSession(c *fiber.Ctx) (*models.UserSession, bool) {
	session := c.Locals(sessionLocal)
	if session == nil {
		return nil, false
	}

	userSession, ok := session.(*models.UserSession)
	return userSession, ok
}

// GetIPAddress returns the first forwarded hop, or the peer address.
func GetIPAddress(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := c.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return c.IP()
}

// GetUserAgent extracts the user agent
func GetUserAgent(c *fiber.Ctx) string {
	return c.Get("User-Agent")
}
