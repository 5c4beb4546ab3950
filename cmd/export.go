package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

var (
	exportFormat  string
	exportCode    string
	exportOut     string
	exportArchive bool
)

var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "write the visit log to a file and optionally archive it to Spaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := services.ParseExportFormat(exportFormat)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBot(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeBot(ctx, b)

		var code *string
		if exportCode != "" {
			code = &exportCode
		}
		file, err := b.Exports.Export(ctx, format, code)
		if err != nil {
			return err
		}
		if file.Rows == 0 {
			slog.Warn("Nothing to export")
			return nil
		}

		path := filepath.Join(exportOut, file.Name)
		if err = os.WriteFile(path, file.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		slog.Info("Export written", slog.String("path", path), slog.Int("rows", file.Rows))

		if !exportArchive {
			return nil
		}
		client, err := database.NewSpacesClient(ctx, cfg.Spaces)
		if err != nil {
			return err
		}
		archiver := services.NewExportArchiver(client, cfg.Spaces.Bucket, cfg.Spaces.Prefix+"/exports")
		_, err = archiver.Archive(ctx, file, b.Clock.Now())
		return err
	},
}

func init() {
	exportCMD.Flags().StringVarP(&exportFormat, "format", "f", "csv", "xlsx, csv or pdf")
	exportCMD.Flags().StringVar(&exportCode, "code", "", "only export this venue")
	exportCMD.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	exportCMD.Flags().BoolVar(&exportArchive, "archive", false, "also upload the file to the configured Spaces bucket")
	rootCmd.AddCommand(exportCMD)
}
