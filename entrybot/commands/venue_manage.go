package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

var VenueUpdate = discord.SlashCommandCreate{
	Name:                     "venue-update",
	NameLocalizations:        ko("매장수정"),
	Description:              "Update a venue",
	DescriptionLocalizations: ko("매장 정보 수정"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue to update"),
		discord.ApplicationCommandOptionString{
			Name:                     "name",
			NameLocalizations:        ko("매장명"),
			Description:              "New venue name",
			DescriptionLocalizations: ko("새 매장명 (선택사항)"),
		},
		discord.ApplicationCommandOptionRole{
			Name:                     "min-role",
			NameLocalizations:        ko("최소역할"),
			Description:              "New minimum role",
			DescriptionLocalizations: ko("새 최소 역할 (선택사항)"),
		},
		discord.ApplicationCommandOptionRole{
			Name:                     "grant-role",
			NameLocalizations:        ko("부여역할"),
			Description:              "New granted role",
			DescriptionLocalizations: ko("새 부여 역할 (선택사항)"),
		},
		discord.ApplicationCommandOptionString{
			Name:                     "passphrase",
			NameLocalizations:        ko("암구호"),
			Description:              "New passphrase",
			DescriptionLocalizations: ko("새 암구호 (선택사항)"),
		},
		discord.ApplicationCommandOptionBool{
			Name:                     "clear-passphrase",
			NameLocalizations:        ko("암구호제거"),
			Description:              "Remove the passphrase",
			DescriptionLocalizations: ko("암구호 제거"),
		},
	},
}

var VenueDelete = discord.SlashCommandCreate{
	Name:                     "venue-delete",
	NameLocalizations:        ko("매장삭제"),
	Description:              "Delete a venue",
	DescriptionLocalizations: ko("매장 삭제"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue to delete"),
	},
}

var VenueList = discord.SlashCommandCreate{
	Name:                     "venue-list",
	NameLocalizations:        ko("매장목록"),
	Description:              "List the venues you registered",
	DescriptionLocalizations: ko("내가 생성한 매장 목록 보기"),
}

func VenueUpdateHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		actor := ActorOf(e)
		if !perms.IsManager(actor) && !perms.IsAdmin(actor) {
			return utils.EH.CreatePermissionError(e, "update venues")
		}

		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		code := data.String("code")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}
		if !perms.CanModify(actor, venue) {
			return utils.EH.CreatePermissionError(e, "update a venue you did not create")
		}

		var (
			patch   models.VenuePatch
			changes []string
		)
		if name, ok := data.OptString("name"); ok && name != "" {
			patch.Name = &name
			changes = append(changes, "Name: "+name)
		}
		if role, ok := data.OptRole("min-role"); ok {
			patch.MinRoleID = &role.ID
			changes = append(changes, "Minimum role: "+discord.RoleMention(role.ID))
		}
		if role, ok := data.OptRole("grant-role"); ok {
			patch.GrantRoleID = &role.ID
			changes = append(changes, "Granted role: "+discord.RoleMention(role.ID))
		}
		if clear, ok := data.OptBool("clear-passphrase"); ok && clear {
			patch.ClearPassphrase = true
			changes = append(changes, "Passphrase: removed")
		} else if pass, ok := data.OptString("passphrase"); ok {
			if pass == "" {
				patch.ClearPassphrase = true
				changes = append(changes, "Passphrase: removed")
			} else {
				patch.Passphrase = &pass
				changes = append(changes, "Passphrase: changed")
			}
		}

		if patch.IsEmpty() {
			return utils.EH.CreateUserError(e, "Nothing to change. Provide at least one option.")
		}

		if _, err := b.Venues.Update(ctx, code, patch); err != nil {
			slog.Error("Failed to update venue",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to update the venue.")
		}

		return e.CreateMessage(ephemeralEmbed(discord.Embed{
			Title:       "✅ Venue updated",
			Description: fmt.Sprintf("**Venue**: %s\n**Code**: `%s`", venue.Name, code),
			Color:       config.SuccessColor,
			Fields: []discord.EmbedField{
				{Name: "Changes", Value: strings.Join(changes, "\n")},
			},
		}))
	}
}

func VenueDeleteHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		actor := ActorOf(e)
		if !perms.IsManager(actor) && !perms.IsAdmin(actor) {
			return utils.EH.CreatePermissionError(e, "delete venues")
		}

		ctx, cancel := commandContext()
		defer cancel()

		code := e.SlashCommandInteractionData().String("code")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}
		if !perms.CanModify(actor, venue) {
			return utils.EH.CreatePermissionError(e, "delete a venue you did not create")
		}

		if err := b.Venues.Delete(ctx, code); err != nil {
			slog.Error("Failed to delete venue",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to delete the venue.")
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Venue '%s' was deleted.", venue.Name))
	}
}

func VenueListHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsManager(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "list venues")
		}

		ctx, cancel := commandContext()
		defer cancel()

		venues, err := b.Venues.ListByOwner(ctx, e.User().ID)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load your venues.")
		}
		if len(venues) == 0 {
			return utils.EH.CreateInfoEmbed(e, "You have not registered any venues.")
		}

		fields := make([]discord.EmbedField, 0, len(venues))
		for _, v := range venues {
			if len(fields) == 25 {
				break
			}
			fields = append(fields, discord.EmbedField{
				Name: "🏪 " + v.Name,
				Value: fmt.Sprintf("**Code**: `%s`\n**Minimum role**: %s\n**Passphrase**: %s",
					v.Code, roleMention(v.MinRoleID, "none"), passphraseState(v)),
			})
		}

		return e.CreateMessage(ephemeralEmbed(discord.Embed{
			Title:  "📋 My venues",
			Color:  config.InfoColor,
			Fields: fields,
		}))
	}
}
