package commands

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/services"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

var VenueExport = discord.SlashCommandCreate{
	Name:                     "venue-export",
	NameLocalizations:        ko("방문기록내보내기"),
	Description:              "Export visit records",
	DescriptionLocalizations: ko("방문 기록 파일로 내보내기 (관리자 전용)"),
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:                     "format",
			NameLocalizations:        ko("형식"),
			Description:              "File format",
			DescriptionLocalizations: ko("파일 형식"),
			Choices: []discord.ApplicationCommandOptionChoiceString{
				{Name: "Excel (xlsx)", Value: string(services.FormatXLSX)},
				{Name: "CSV", Value: string(services.FormatCSV)},
				{Name: "PDF", Value: string(services.FormatPDF)},
			},
		},
		discord.ApplicationCommandOptionString{
			Name:                     "code",
			NameLocalizations:        ko("매장코드"),
			Description:              "Only export this venue",
			DescriptionLocalizations: ko("특정 매장만 내보내기"),
			Autocomplete:             true,
		},
	},
}

var VenueResetCheckin = discord.SlashCommandCreate{
	Name:                     "venue-reset-checkin",
	NameLocalizations:        ko("체크인초기화"),
	Description:              "Reset a user's check-in for today",
	DescriptionLocalizations: ko("유저의 오늘 체크인 초기화 (관리자 전용)"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue"),
		userOption("User to reset", "초기화할 유저"),
	},
}

var VenueDeleteVisits = discord.SlashCommandCreate{
	Name:                     "venue-delete-visits",
	NameLocalizations:        ko("방문기록삭제"),
	Description:              "Delete every visit of a user at a venue",
	DescriptionLocalizations: ko("유저의 매장 방문 기록 전체 삭제 (관리자 전용)"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue"),
		userOption("User whose visits to delete", "기록을 삭제할 유저"),
	},
}

var Dashboard = discord.SlashCommandCreate{
	Name:                     "dashboard",
	NameLocalizations:        ko("대시보드"),
	Description:              "Get a dashboard access link",
	DescriptionLocalizations: ko("대시보드 접속 링크 발급 (관리자 전용)"),
}

func VenueExportHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdmin(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "export visit records")
		}

		data := e.SlashCommandInteractionData()
		format := services.FormatXLSX
		if raw, ok := data.OptString("format"); ok {
			parsed, err := services.ParseExportFormat(raw)
			if err != nil {
				return utils.EH.CreateUserError(e, err.Error())
			}
			format = parsed
		}
		var code *string
		if raw, ok := data.OptString("code"); ok && raw != "" {
			code = &raw
		}

		if err := e.DeferCreateMessage(true); err != nil {
			return err
		}

		ctx, cancel := exportContext()
		defer cancel()

		file, err := b.Exports.Export(ctx, format, code)
		if err != nil {
			slog.Error("Failed to export visits",
				slog.String("type", "sys"),
				slog.String("format", string(format)),
				slog.Any("error", err))
			return utils.EH.FollowupError(e, utils.SystemError, "Failed to create the export file.")
		}
		if file.Rows == 0 {
			return utils.EH.FollowupError(e, utils.NotFoundError, "There are no visit records to export.")
		}

		_, err = e.CreateFollowupMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "📁 Visit records exported",
				Description: fmt.Sprintf("%s in `%s`", plural(file.Rows, "record"), file.Name),
				Color:       config.SuccessColor,
			}},
			Files: []*discord.File{discord.NewFile(file.Name, "", bytes.NewReader(file.Data))},
			Flags: discord.MessageFlagEphemeral,
		})
		return err
	}
}

func VenueResetCheckinHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdmin(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "reset check-ins")
		}

		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		code := data.String("code")
		user := data.User("user")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}

		removed, err := b.Visits.ResetToday(ctx, code, user.ID, clock.Today(b.Clock))
		if err != nil {
			slog.Error("Failed to reset check-in",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to reset the check-in.")
		}
		if !removed {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("%s has not checked in to '%s' today.", user.Username, venue.Name))
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Reset today's check-in of %s at '%s'.", user.Username, venue.Name))
	}
}

func VenueDeleteVisitsHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdmin(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "delete visit records")
		}

		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		code := data.String("code")
		user := data.User("user")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}

		removed, err := b.Visits.DeleteAllForUser(ctx, code, user.ID)
		if err != nil {
			slog.Error("Failed to delete visits",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to delete the visit records.")
		}
		if removed == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("%s has no visits at '%s'.", user.Username, venue.Name))
		}
		return utils.EH.CreateSuccessEmbed(e, fmt.Sprintf("Deleted %s of %s at '%s'.", plural(removed, "visit"), user.Username, venue.Name))
	}
}

func DashboardHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdmin(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "open the dashboard")
		}

		ctx, cancel := commandContext()
		defer cancel()

		ttl := b.Cfg.Dashboard.TokenTTL.Duration
		token, err := b.Tokens.Issue(ctx, e.User().ID, e.User().Username, ttl)
		if err != nil {
			slog.Error("Failed to issue dashboard token",
				slog.String("type", "db"),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to issue a dashboard link.")
		}
		b.Metrics.IncTokenIssued()

		return e.CreateMessage(ephemeralEmbed(discord.Embed{
			Title:       "🔐 Dashboard access",
			Description: fmt.Sprintf("[Open dashboard](%s)", DashboardURL(b.Cfg.Web.BaseURL, token.Token)),
			Color:       config.InfoColor,
			Footer: &discord.EmbedFooter{
				Text: "Expires " + token.ExpiresAt.In(clock.KST).Format("2006-01-02 15:04:05") + " KST",
			},
		}))
	}
}

func DashboardURL(baseURL, token string) string {
	return baseURL + "/dashboard?token=" + url.QueryEscape(token)
}
