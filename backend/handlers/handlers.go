package handlers

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/disgoorg/entry-bot/backend/config"
	webmodels "github.com/disgoorg/entry-bot/backend/models"
	webservices "github.com/disgoorg/entry-bot/backend/services"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

// CheckinRunner performs a check-in for a logged in user.
type CheckinRunner interface {
	CheckIn(ctx context.Context, req services.CheckinRequest) (*services.CheckinResult, error)
}

// Authenticator runs the Discord OAuth flow.
type Authenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*webservices.DiscordUser, error)
}

// WebApp represents the web application with all dependencies
type WebApp struct {
	Config   *config.WebAppConfig
	Venues   repositories.VenueRepository
	Tokens   repositories.TokenRepository
	Checkin  CheckinRunner
	Stats    *services.StatsService
	Exports  *services.ExportService
	QR       *services.QRService
	OAuth    Authenticator
	Sessions *webservices.SessionService
	Gatherer prometheus.Gatherer
	Version  string
	Commit   string
}

// HealthCheck reports liveness.
func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(webmodels.HealthResponse{
			Status:  "ok",
			Version: webApp.Version,
			Commit:  webApp.Commit,
		})
	}
}

// Metrics exposes the Prometheus registry.
func Metrics(webApp *WebApp) fiber.Handler {
	gatherer := webApp.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}))
}
