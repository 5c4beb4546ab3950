package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/disgoorg/entry-bot/backend/models"
	"github.com/disgoorg/entry-bot/backend/utils"
	dbmodels "github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

const tokenLocal = "access_token"

type SessionReader interface {
	GetSession(c *fiber.Ctx) (*models.UserSession, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*dbmodels.AccessToken, error)
}

// OptionalSession adds the logged in user to the context when there is one.
func OptionalSession(sessions SessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session, err := sessions.GetSession(c); err == nil {
			utils.SetUserSession(c, session)
		}
		return c.Next()
	}
}

// SessionRequired rejects requests without a live login with 401.
func SessionRequired(sessions SessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.GetSession(c)
		if err != nil {
			slog.Debug("Session required: no valid session",
				slog.String("type", "web"),
				slog.String("error", err.Error()))
			return utils.SendJSON(c, fiber.StatusUnauthorized, models.CheckinResponse{
				Success: false,
				Message: "Please log in first.",
			})
		}
		utils.SetUserSession(c, session)
		return c.Next()
	}
}

// TokenRequired checks the dashboard token in the "token" query parameter.
func TokenRequired(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("token")
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "A token is required.")
		}

		token, err := tokens.Verify(c.UserContext(), raw)
		if err != nil && !errors.Is(err, repositories.ErrInvalidToken) {
			return err
		}
		if err != nil {
			slog.Debug("Token required: verification failed",
				slog.String("type", "web"),
				slog.String("error", err.Error()))
			return fiber.NewError(fiber.StatusUnauthorized, "The token is invalid or has expired.")
		}

		c.Locals(tokenLocal, token)
		return c.Next()
	}
}

func ExtractAccessToken(c *fiber.Ctx) (*dbmodels.AccessToken, bool) {
	token, ok := c.Locals(tokenLocal).(*dbmodels.AccessToken)
	return token, ok
}
