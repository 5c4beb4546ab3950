package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var tokensCMD = &cobra.Command{
	Use:   "tokens",
	Short: "dashboard access token maintenance",
}

var tokensSweepCMD = &cobra.Command{
	Use:   "sweep",
	Short: "delete expired dashboard tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		b, err := openBot(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeBot(ctx, b)

		n, err := b.Sweeper.Sweep(ctx)
		if err != nil {
			return err
		}
		slog.Info("Expired tokens removed", slog.Int("count", n))
		return nil
	},
}

func init() {
	tokensCMD.AddCommand(tokensSweepCMD)
	rootCmd.AddCommand(tokensCMD)
}
