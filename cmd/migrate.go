package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/disgoorg/entry-bot/entrybot/database"
)

var (
	migrateFrom    string
	migrateFromDir string
	migrateTo      string
	migrateToDir   string
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "copy venues, visits and tokens between store drivers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srcCfg := cfg.StoreConfig()
		if migrateFrom != "" {
			if srcCfg, err = storeOverride(cfg, migrateFrom, migrateFromDir); err != nil {
				return err
			}
		}
		src, err := database.Open(ctx, srcCfg)
		if err != nil {
			slog.Error("Failed to open source store", "error", err)
			return err
		}
		defer src.Close(ctx)

		dstCfg, err := storeOverride(cfg, migrateTo, migrateToDir)
		if err != nil {
			return err
		}
		dst, err := database.Open(ctx, dstCfg)
		if err != nil {
			slog.Error("Failed to open destination store", "error", err)
			return err
		}
		defer dst.Close(ctx)

		copied, err := database.Copy(ctx, src, dst)
		if err != nil {
			slog.Error("Migration failed", "error", err, "copied", strings.Join(copied, ","))
			return err
		}

		slog.Info("Migration completed successfully",
			slog.String("from", src.Name()),
			slog.String("to", dst.Name()),
			slog.Any("collections", copied))
		return nil
	},
}

func init() {
	migrateCMD.Flags().StringVar(&migrateFrom, "from", "", "source driver, defaults to store.driver")
	migrateCMD.Flags().StringVar(&migrateFromDir, "from-dir", "", "data directory when the source is the file driver")
	migrateCMD.Flags().StringVar(&migrateTo, "to", "", "destination driver (file, postgres, mongo, spaces)")
	migrateCMD.Flags().StringVar(&migrateToDir, "to-dir", "", "data directory when the destination is the file driver")
	_ = migrateCMD.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCMD)
}
