package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/metrics"
)

func TestTokenSweeperSweep(t *testing.T) {
	ctx := context.Background()
	c := clock.NewManual(time.Date(2024, 1, 5, 12, 0, 0, 0, clock.KST))
	tokens := repositories.NewTokenRepository(database.NewStore(database.NewMemoryBackend(), nil), c)
	m := metrics.New(prometheus.NewRegistry())

	_, err := tokens.Issue(ctx, 1, "a", time.Minute)
	require.NoError(t, err)
	_, err = tokens.Issue(ctx, 2, "b", time.Hour)
	require.NoError(t, err)

	c.Advance(10 * time.Minute)

	sweeper := NewTokenSweeper(tokens, m, 0)
	assert.Equal(t, time.Hour, sweeper.interval)

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TokensSwept))

	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestTokenSweeperRunStops(t *testing.T) {
	c := clock.NewManual(time.Date(2024, 1, 5, 12, 0, 0, 0, clock.KST))
	tokens := repositories.NewTokenRepository(database.NewStore(database.NewMemoryBackend(), nil), c)
	sweeper := NewTokenSweeper(tokens, metrics.Noop(), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
