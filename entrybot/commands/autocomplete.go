package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

// VenueCodeAutocomplete suggests venue codes matching the typed code or name.
func VenueCodeAutocomplete(b *entrybot.Bot) handler.AutocompleteHandler {
	return func(e *handler.AutocompleteEvent) error {
		focused := e.Data.Focused()
		if focused.Name != "code" {
			return nil
		}

		query := ""
		if focused.Value != nil {
			var s string
			if err := json.Unmarshal(focused.Value, &s); err != nil {
				return e.AutocompleteResult([]discord.AutocompleteChoice{})
			}
			query = strings.TrimSpace(s)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		venues, err := b.Search.Search(ctx, query, nil, services.MaxAutocompleteChoices)
		if err != nil {
			slog.Error("Failed to search venues",
				slog.String("type", "db"),
				slog.String("query", query),
				slog.Any("error", err))
			return e.AutocompleteResult([]discord.AutocompleteChoice{})
		}
		return e.AutocompleteResult(VenueChoices(venues))
	}
}

func VenueChoices(venues []*models.Venue) []discord.AutocompleteChoice {
	choices := make([]discord.AutocompleteChoice, 0, min(len(venues), services.MaxAutocompleteChoices))
	for _, v := range venues {
		if len(choices) == services.MaxAutocompleteChoices {
			break
		}
		choices = append(choices, discord.AutocompleteChoiceString{
			Name:  fmt.Sprintf("%s (%s)", v.Name, v.Code),
			Value: v.Code,
		})
	}
	return choices
}
