package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/handler"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/disgoorg/entry-bot/backend"
	webconfig "github.com/disgoorg/entry-bot/backend/config"
	"github.com/disgoorg/entry-bot/backend/handlers"
	webservices "github.com/disgoorg/entry-bot/backend/services"
	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/commands"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/logger"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := entrybot.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}

	opts := []logger.Option{logger.WithLevel(cfg.Log.Level)}
	if cfg.Log.NoColor {
		opts = append(opts, logger.WithoutColor())
	}
	slog.SetDefault(slog.New(logger.NewHandler("EntryBot", opts...)))

	slog.Info("Starting Entry Bot",
		slog.String("version", version),
		slog.String("commit", commit))

	if err = cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	storeStart := time.Now()
	openCtx, openCancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := database.Open(openCtx, cfg.StoreConfig())
	openCancel()
	if err != nil {
		slog.Error("Store connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(storeStart)))
		os.Exit(-1)
	}

	logger.LogStartup("store",
		slog.String("driver", store.Name()),
		slog.Duration("took", time.Since(storeStart)))

	b := entrybot.New(*cfg, version, commit)
	b.SetupStore(store, metrics.New(prometheus.DefaultRegisterer))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.Store.Close(ctx); err != nil {
			slog.Error("Failed to close store", slog.Any("error", err))
		}
	}()

	h := handler.New()
	commands.Register(h, b)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)),
			slog.String("component", "bot_setup"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands || cfg.Bot.SyncCommands {
		slog.Info("Syncing commands",
			slog.String("type", "sys"),
			slog.Any("guild_ids", cfg.Bot.DevGuilds),
		)
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands",
				slog.String("type", "sys"),
				slog.Any("error", err),
				slog.String("component", "command_sync"),
				slog.String("status", "failed"),
			)
		}
	}

	gatewayCtx, gatewayCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = b.Client.OpenGateway(gatewayCtx)
	gatewayCancel()
	if err != nil {
		slog.Error("Failed to open gateway",
			slog.String("type", "sys"),
			slog.Any("error", err),
			slog.String("component", "gateway"),
			slog.String("status", "failed"),
		)
		os.Exit(-1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.LogStartup("token_sweeper", slog.Duration("interval", cfg.Dashboard.SweepInterval.Duration))
		err := b.Sweeper.Run(ctx)
		logger.LogShutdown("token_sweeper", err)
		return err
	})

	if cfg.Web.Enabled {
		webCfg := webconfig.NewWebAppConfig(cfg, version == "dev")
		app := backend.NewApp(&handlers.WebApp{
			Config:   webCfg,
			Venues:   b.Venues,
			Tokens:   b.Tokens,
			Checkin:  b.Checkin,
			Stats:    b.Stats,
			Exports:  b.Exports,
			QR:       b.QR,
			OAuth:    webservices.NewOAuthService(webCfg),
			Sessions: webservices.NewSessionService(webCfg, b.Clock),
			Gatherer: prometheus.DefaultGatherer,
			Version:  version,
			Commit:   commit,
		})
		g.Go(func() error {
			logger.LogStartup("web", slog.String("address", cfg.Web.Addr()))
			err := backend.Serve(ctx, app, cfg.Web.Addr())
			logger.LogShutdown("web", err)
			return err
		})
	}

	slog.Info("Bot is running. Press CTRL-C to exit.")
	if err = g.Wait(); err != nil {
		slog.Error("Shutting down after error", slog.Any("error", err))
		return
	}
	slog.Info("Shutting down bot...")
}
