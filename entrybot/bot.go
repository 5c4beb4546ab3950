package entrybot

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Version:   version,
		Commit:    commit,
		Clock:     clock.System(),
	}
}

type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Version   string
	Commit    string
	Clock     clock.Clock
	Metrics   *metrics.Metrics

	Store  *database.Store
	Venues repositories.VenueRepository
	Visits repositories.VisitRepository
	Tokens repositories.TokenRepository

	Guild   *services.GuildService
	Checkin *services.CheckinService
	Stats   *services.StatsService
	Exports *services.ExportService
	QR      *services.QRService
	Codes   *services.CodeGenerator
	Search  *services.VenueSearch
	Sweeper *services.TokenSweeper
}

// SetupStore wires the repositories and the services that only need storage.
func (b *Bot) SetupStore(backend database.Backend, m *metrics.Metrics) {
	b.Metrics = m
	b.Store = database.NewStore(backend, m)
	b.Venues = repositories.NewVenueRepository(b.Store, b.Clock)
	b.Visits = repositories.NewVisitRepository(b.Store, b.Clock, b.Venues)
	b.Tokens = repositories.NewTokenRepository(b.Store, b.Clock)

	b.Stats = services.NewStatsService(b.Visits, b.Venues, b.Clock)
	b.Exports = services.NewExportService(b.Visits, b.Clock, m, nil)
	b.QR = services.NewQRService(b.Cfg.Web.BaseURL)
	b.Codes = services.NewCodeGenerator(b.Venues)
	b.Search = services.NewVenueSearch(b.Venues)
	b.Sweeper = services.NewTokenSweeper(b.Tokens, m, b.Cfg.Dashboard.SweepInterval.Duration)
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	b.Guild = services.NewGuildService(client.Rest())
	b.Checkin = services.NewCheckinService(b.Venues, b.Visits, b.Guild, b.Guild, b.Guild, b.Clock, b.Metrics, b.Cfg.Bot.GuildID)
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Entry bot is now ready",
		slog.String("type", "sys"),
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("check-ins"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
