// Package cmd holds the entryctl maintenance commands that run against the
// check-in store without starting the bot.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/logger"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "entryctl",
	Short:         "maintenance tools for the entry bot store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		slog.SetDefault(slog.New(logger.NewHandler("EntryCtl")))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.toml", "path to config")
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig() (*entrybot.Config, error) {
	cfg, err := entrybot.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openBot opens the configured store and wires the storage-only services
// of a bot that never connects to Discord.
func openBot(ctx context.Context, cfg *entrybot.Config) (*entrybot.Bot, error) {
	backend, err := database.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, err
	}
	b := entrybot.New(*cfg, "entryctl", "")
	b.SetupStore(backend, metrics.Noop())
	return b, nil
}

func closeBot(ctx context.Context, b *entrybot.Bot) {
	if err := b.Store.Close(ctx); err != nil {
		slog.Error("Failed to close store", slog.Any("error", err))
	}
}

func storeOverride(cfg *entrybot.Config, driver, dataDir string) (database.Config, error) {
	store := cfg.StoreConfig()
	if driver == "" {
		return store, fmt.Errorf("driver is required")
	}
	store.Driver = driver
	if dataDir != "" {
		store.DataDir = dataDir
	}
	return store, nil
}
