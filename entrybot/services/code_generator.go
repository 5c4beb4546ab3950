package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

var (
	ErrCodeSpaceExhausted = errors.New("no free venue code left")
	ErrCodeContended      = errors.New("venue code taken concurrently")
)

// CodeGenerator draws two digit venue codes, 01 to 99, until it finds one
// that is not registered.
type CodeGenerator struct {
	venues   repositories.VenueRepository
	attempts int
	retries  int
	intn     func(n int) int
}

func NewCodeGenerator(venues repositories.VenueRepository) *CodeGenerator {
	return &CodeGenerator{
		venues:   venues,
		attempts: config.VenueCodeAttempts,
		retries:  config.VenueRegisterRetries,
		intn:     rand.IntN,
	}
}

func (g *CodeGenerator) Next(ctx context.Context) (string, error) {
	for i := 0; i < g.attempts; i++ {
		code := fmt.Sprintf("%02d", g.intn(99)+1)
		exists, err := g.venues.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	// Random draws can miss the last few free codes; sweep before giving up.
	for n := 1; n <= 99; n++ {
		code := fmt.Sprintf("%02d", n)
		exists, err := g.venues.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

// Register assigns a free code to venue and creates it. Next and Create are
// separate locked steps, so a concurrent registration can claim the drawn
// code in between; a conflict draws a new code, up to retries times.
func (g *CodeGenerator) Register(ctx context.Context, venue *models.Venue) (string, error) {
	for i := 0; i < g.retries; i++ {
		code, err := g.Next(ctx)
		if err != nil {
			return "", err
		}
		venue.Code = code

		err = g.venues.Create(ctx, venue)
		if repositories.IsConflict(err) {
			slog.Debug("Venue code taken during registration, redrawing",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.Int("attempt", i+1))
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	venue.Code = ""
	return "", ErrCodeContended
}
