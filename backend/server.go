// Package backend serves the web check-in page and the token gated dashboard.
package backend

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/disgoorg/entry-bot/backend/handlers"
	"github.com/disgoorg/entry-bot/backend/middleware"
)

const shutdownTimeout = 15 * time.Second

// NewApp builds the fiber app with every route mounted.
func NewApp(webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "EntryBot Web",
		ServerHeader:          "EntryBot",
		ErrorHandler:          middleware.CustomErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.LoggingMiddleware())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.TrimRight(webApp.Config.GetWebConfig().BaseURL, "/"),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	setupRoutes(app, webApp)
	return app
}

func setupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))
	app.Get("/metrics", handlers.Metrics(webApp))

	// check-in
	app.Get("/", middleware.OptionalSession(webApp.Sessions), handlers.Index(webApp))
	app.Get("/qr/:code.png", handlers.QRImage(webApp))

	auth := app.Group("/oauth", middleware.AuthRateLimit())
	auth.Get("/login", handlers.OAuthLogin(webApp))
	auth.Get("/callback", handlers.OAuthCallback(webApp))
	app.Get("/logout", handlers.Logout(webApp))

	app.Post("/api/checkin",
		middleware.CheckinRateLimit(),
		middleware.SessionRequired(webApp.Sessions),
		handlers.APICheckin(webApp))

	// dashboard
	tokenRequired := middleware.TokenRequired(webApp.Tokens)
	app.Get("/dashboard", tokenRequired, middleware.AuditLogMiddleware("dashboard"), handlers.Dashboard(webApp))

	api := app.Group("/api", middleware.APIRateLimit(), tokenRequired)
	api.Get("/stores", handlers.APIStores(webApp))
	api.Get("/visits", handlers.APIVisits(webApp))
	api.Get("/stats/daily", handlers.APIDailyStats(webApp))
	api.Get("/stats/visitors", handlers.APIVisitorStats(webApp))
	api.Get("/export/:format", middleware.AuditLogMiddleware("export"), handlers.APIExport(webApp))

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "The requested page does not exist.")
	})
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("Web server listening",
		slog.String("type", "web"),
		slog.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	slog.Info("Web server stopped", slog.String("type", "web"))
	return nil
}
