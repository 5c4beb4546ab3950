package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

// TokenSweeper periodically removes expired dashboard tokens.
type TokenSweeper struct {
	tokens   repositories.TokenRepository
	metrics  *metrics.Metrics
	interval time.Duration
	running  atomic.Bool
}

func NewTokenSweeper(tokens repositories.TokenRepository, m *metrics.Metrics, interval time.Duration) *TokenSweeper {
	if interval <= 0 {
		interval = config.DefaultSweepInterval
	}
	return &TokenSweeper{tokens: tokens, metrics: m, interval: interval}
}

// Run sweeps once at start and then every interval until ctx is done.
func (s *TokenSweeper) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

// Sweep deletes expired tokens and reports how many were removed. A sweep
// already in progress makes it return 0 immediately.
func (s *TokenSweeper) Sweep(ctx context.Context) (int, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.running.Store(false)

	removed, err := s.tokens.CleanupExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.AddTokensSwept(removed)
	return removed, nil
}

func (s *TokenSweeper) sweepAndLog(ctx context.Context) {
	start := time.Now()
	removed, err := s.Sweep(ctx)
	if err != nil {
		slog.Error("Token sweep failed",
			slog.String("type", "error"),
			slog.Any("error", err))
		return
	}
	if removed > 0 {
		slog.Info("Expired tokens removed",
			slog.String("type", "sys"),
			slog.Int("removed", removed),
			slog.Duration("took", time.Since(start)))
	}
}
