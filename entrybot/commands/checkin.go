package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/disgo/rest"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/services"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

const passphraseInputID = "passphrase"

var Entry = discord.SlashCommandCreate{
	Name:                     "entry",
	NameLocalizations:        ko("입장"),
	Description:              "Check in to a venue",
	DescriptionLocalizations: ko("매장 체크인"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue"),
	},
}

type checkinEvent interface {
	utils.Responder
	utils.FollowupSender
	User() discord.User
	DeferCreateMessage(ephemeral bool, opts ...rest.RequestOpt) error
	Modal(modalCreate discord.ModalCreate, opts ...rest.RequestOpt) error
}

func EntryHandler(b *entrybot.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		return startCheckin(b, e, e.SlashCommandInteractionData().String("code"))
	}
}

func CheckinButtonHandler(b *entrybot.Bot) handler.ComponentHandler {
	return func(e *handler.ComponentEvent) error {
		return startCheckin(b, e, e.Vars["code"])
	}
}

// startCheckin opens the passphrase modal when the venue needs one and
// otherwise checks the user in right away.
func startCheckin(b *entrybot.Bot, e checkinEvent, code string) error {
	ctx, cancel := commandContext()
	defer cancel()

	venue, err := findVenue(ctx, b, e, code)
	if venue == nil {
		return err
	}
	if venue.RequiresPassphrase() {
		return e.Modal(PassphraseModal(venue))
	}
	return runCheckin(b, e, code, "")
}

func CheckinModalHandler(b *entrybot.Bot) handler.ModalHandler {
	return func(e *handler.ModalEvent) error {
		return runCheckin(b, e, e.Vars["code"], modalPassphrase(e.Data))
	}
}

// modalPassphrase returns the submitted passphrase without surrounding
// whitespace, matching the web form.
func modalPassphrase(data discord.ModalSubmitInteractionData) string {
	return strings.TrimSpace(data.Text(passphraseInputID))
}

type deferredEvent interface {
	utils.FollowupSender
	User() discord.User
	DeferCreateMessage(ephemeral bool, opts ...rest.RequestOpt) error
}

func runCheckin(b *entrybot.Bot, e deferredEvent, code, passphrase string) error {
	if err := e.DeferCreateMessage(true); err != nil {
		return err
	}

	ctx, cancel := commandContext()
	defer cancel()

	result, err := b.Checkin.CheckIn(ctx, services.CheckinRequest{
		Code:       code,
		UserID:     e.User().ID,
		Passphrase: passphrase,
		Source:     services.SourceBot,
	})
	if err != nil {
		slog.Error("Check-in failed",
			slog.String("type", "sys"),
			slog.String("code", code),
			slog.String("user_id", e.User().ID.String()),
			slog.Any("error", err))
		return utils.EH.FollowupError(e, utils.SystemError, "Check-in failed. Please try again later.")
	}

	_, err = e.CreateFollowupMessage(discord.MessageCreate{
		Embeds: []discord.Embed{CheckinResultEmbed(result)},
		Flags:  discord.MessageFlagEphemeral,
	})
	return err
}

func PassphraseModal(venue *models.Venue) discord.ModalCreate {
	return discord.ModalCreate{
		CustomID: CheckinModalID(venue.Code),
		Title:    "🔑 " + venue.Name,
		Components: []discord.ContainerComponent{
			discord.NewActionRow(
				discord.NewShortTextInput(passphraseInputID, "Passphrase").
					WithRequired(true).
					WithMaxLength(100),
			),
		},
	}
}

// CheckinResultEmbed is the visitor facing reply for every outcome.
func CheckinResultEmbed(r *services.CheckinResult) discord.Embed {
	embed := discord.Embed{Description: r.Message()}
	switch r.Outcome {
	case services.OutcomeCheckedIn:
		embed.Title = "✅ Checked in"
		embed.Color = config.SuccessColor
		embed.Fields = []discord.EmbedField{
			{Name: "Venue", Value: r.Venue.Name, Inline: inline(true)},
			{Name: "Visits", Value: services.VisitLabel(r.VisitCount), Inline: inline(true)},
		}
		if r.RoleGranted && r.Venue.GrantRoleID != nil {
			embed.Fields = append(embed.Fields, discord.EmbedField{
				Name:  "Role granted",
				Value: discord.RoleMention(*r.Venue.GrantRoleID),
			})
		}
	case services.OutcomeAlreadyCheckedIn:
		embed.Title = "ℹ️ Already checked in"
		embed.Color = config.InfoColor
	case services.OutcomeRoleTooLow, services.OutcomePassphraseMismatch, services.OutcomePassphraseRequired:
		embed.Title = "⚠️ Check-in rejected"
		embed.Color = config.WarningColor
	default:
		embed.Title = "❌ Check-in failed"
		embed.Color = config.ErrorColor
	}
	if r.Venue != nil && r.Outcome != services.OutcomeCheckedIn {
		embed.Footer = &discord.EmbedFooter{Text: fmt.Sprintf("%s (%s)", r.Venue.Name, r.Venue.Code)}
	}
	return embed
}
