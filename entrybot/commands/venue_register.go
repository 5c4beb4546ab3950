package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/services"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

var VenueRegister = discord.SlashCommandCreate{
	Name:                     "venue-register",
	NameLocalizations:        ko("매장등록"),
	Description:              "Register a venue and post its check-in QR code",
	DescriptionLocalizations: ko("매장 입장용 QR 생성"),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:                     "name",
			NameLocalizations:        ko("매장명"),
			Description:              "Venue or event name",
			DescriptionLocalizations: ko("매장 또는 이벤트 이름"),
			Required:                 true,
		},
		discord.ApplicationCommandOptionRole{
			Name:                     "min-role",
			NameLocalizations:        ko("최소역할"),
			Description:              "Lowest role allowed to check in",
			DescriptionLocalizations: ko("입장 가능한 최소 역할 (선택사항)"),
		},
		discord.ApplicationCommandOptionRole{
			Name:                     "grant-role",
			NameLocalizations:        ko("부여역할"),
			Description:              "Role granted on a successful check-in",
			DescriptionLocalizations: ko("입장 승인 시 자동 부여할 역할 (선택사항)"),
		},
		discord.ApplicationCommandOptionString{
			Name:                     "passphrase",
			NameLocalizations:        ko("암구호"),
			Description:              "Today's passphrase",
			DescriptionLocalizations: ko("오늘의 암구호 (선택사항)"),
		},
	},
}

func VenueRegisterHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsManager(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "register venues")
		}
		guildID := e.GuildID()
		if guildID == nil {
			return utils.EH.CreateUserError(e, "Venues must be registered inside a server.")
		}

		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		venue := &models.Venue{
			Name:    data.String("name"),
			OwnerID: e.User().ID,
			GuildID: *guildID,
		}
		if role, ok := data.OptRole("min-role"); ok {
			venue.MinRoleID = &role.ID
		}
		if role, ok := data.OptRole("grant-role"); ok {
			venue.GrantRoleID = &role.ID
		}
		if pass, ok := data.OptString("passphrase"); ok && pass != "" {
			venue.Passphrase = &pass
		}

		code, err := b.Codes.Register(ctx, venue)
		switch {
		case errors.Is(err, services.ErrCodeSpaceExhausted):
			return utils.EH.CreateBusinessLogicError(e, "No free venue code left. Delete an unused venue first.")
		case errors.Is(err, services.ErrCodeContended):
			return utils.EH.CreateBusinessLogicError(e, "Other venues are being registered right now. Please try again.")
		case err != nil:
			slog.Error("Failed to create venue",
				slog.String("type", "db"),
				slog.String("name", venue.Name),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to register the venue.")
		}

		if err := e.CreateMessage(VenueMessage(b.QR, venue)); err != nil {
			return err
		}

		// Remember where the check-in button lives.
		msg, err := e.GetInteractionResponse()
		if err != nil {
			slog.Warn("Failed to fetch check-in message",
				slog.String("type", "cmd"),
				slog.String("code", code),
				slog.Any("error", err))
			return nil
		}
		channelID, messageID := msg.ChannelID, msg.ID
		if _, err := b.Venues.Update(ctx, code, models.VenuePatch{ChannelID: &channelID, MessageID: &messageID}); err != nil {
			slog.Warn("Failed to store check-in message",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.Any("error", err))
		}
		return nil
	}
}

// VenueMessage is the public registration post with the check-in button.
func VenueMessage(qr *services.QRService, v *models.Venue) discord.MessageCreate {
	minRole := roleMention(v.MinRoleID, "none (everyone may enter)")

	fields := []discord.EmbedField{
		{Name: "Venue code", Value: fmt.Sprintf("# **`%s`**", v.Code)},
		{Name: "Check-in URL", Value: qr.CheckinURL(v.Code)},
		{Name: "QR image", Value: qr.ImageURL(v.Code)},
		{Name: "Minimum role", Value: minRole, Inline: inline(true)},
	}
	if v.GrantRoleID != nil {
		fields = append(fields, discord.EmbedField{Name: "Granted role", Value: roleMention(v.GrantRoleID, ""), Inline: inline(true)})
	}
	fields = append(fields, discord.EmbedField{Name: "Passphrase", Value: passphraseState(v), Inline: inline(true)})

	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:  fmt.Sprintf("🏪 %s - venue registered", v.Name),
			Color:  config.InfoColor,
			Fields: fields,
			Image:  &discord.EmbedResource{URL: qr.ImageURL(v.Code)},
		}},
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.NewSuccessButton("Check in", CheckinButtonID(v.Code)).
					WithEmoji(discord.ComponentEmoji{Name: "✅"}),
			),
		},
	}
}

func CheckinButtonID(code string) string {
	return "/checkin/" + code
}

func CheckinModalID(code string) string {
	return "/checkin-modal/" + code
}
