package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.CommandExecutionTimeout)
}

// findVenue loads a venue and answers the interaction itself when it is
// missing or the store fails. A nil venue means a reply was already sent.
func findVenue(ctx context.Context, b *entrybot.Bot, e utils.Responder, code string) (*models.Venue, error) {
	venue, err := b.Venues.Get(ctx, code)
	if repositories.IsNotFound(err) {
		return nil, utils.EH.CreateNotFoundError(e, "Venue", code)
	}
	if err != nil {
		slog.Error("Failed to load venue",
			slog.String("type", "db"),
			slog.String("code", code),
			slog.Any("error", err))
		return nil, utils.EH.CreateSystemError(e, "Failed to load the venue. Please try again later.")
	}
	return venue, nil
}

func displayName(user discord.User, member *discord.ResolvedMember) string {
	if member != nil && member.Nick != nil && *member.Nick != "" {
		return *member.Nick
	}
	if user.GlobalName != nil && *user.GlobalName != "" {
		return *user.GlobalName
	}
	return user.Username
}

func roleMention(id *snowflake.ID, none string) string {
	if id == nil {
		return none
	}
	return discord.RoleMention(*id)
}

func passphraseState(v *models.Venue) string {
	if v.RequiresPassphrase() {
		return "✅ set"
	}
	return "❌ none"
}

func inline(b bool) *bool {
	return &b
}

func ephemeralEmbed(embed discord.Embed) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{embed},
		Flags:  discord.MessageFlagEphemeral,
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func exportContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.ExportTimeout)
}
