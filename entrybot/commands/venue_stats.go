package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/services"
	"github.com/disgoorg/entry-bot/entrybot/utils"
)

var VenueVisitors = discord.SlashCommandCreate{
	Name:                     "venue-visitors",
	NameLocalizations:        ko("방문자조회"),
	Description:              "Show visitors of a venue",
	DescriptionLocalizations: ko("매장 방문자 목록 조회"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue"),
	},
}

var VenueStats = discord.SlashCommandCreate{
	Name:                     "venue-stats",
	NameLocalizations:        ko("매장통계"),
	Description:              "Visitor chart for a venue",
	DescriptionLocalizations: ko("매장 방문 통계 (관리자 전용)"),
	Options: []discord.ApplicationCommandOption{
		venueCodeOption("Code of the venue"),
		discord.ApplicationCommandOptionString{
			Name:                     "start-date",
			NameLocalizations:        ko("시작일"),
			Description:              "Start date (YYYYMMDD)",
			DescriptionLocalizations: ko("시작일 (YYYYMMDD)"),
			MinLength:                intPtr(8),
			MaxLength:                intPtr(8),
		},
		discord.ApplicationCommandOptionString{
			Name:                     "end-date",
			NameLocalizations:        ko("종료일"),
			Description:              "End date (YYYYMMDD)",
			DescriptionLocalizations: ko("종료일 (YYYYMMDD)"),
			MinLength:                intPtr(8),
			MaxLength:                intPtr(8),
		},
	},
}

var VenueHistory = discord.SlashCommandCreate{
	Name:                     "venue-history",
	NameLocalizations:        ko("방문기록"),
	Description:              "Show a user's venue history",
	DescriptionLocalizations: ko("유저의 매장 방문 기록 조회"),
	Options: []discord.ApplicationCommandOption{
		userOption("User to look up", "조회할 유저"),
	},
}

func intPtr(i int) *int { return &i }

func VenueVisitorsHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsManager(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "view visitors")
		}

		ctx, cancel := commandContext()
		defer cancel()

		code := e.SlashCommandInteractionData().String("code")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}

		stats, err := b.Stats.VenueStats(ctx, code, nil, nil)
		if err != nil {
			slog.Error("Failed to load visitor stats",
				slog.String("type", "db"),
				slog.String("code", code),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to load visitors.")
		}
		if len(stats) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("No one has visited '%s' yet.", venue.Name))
		}

		totalPages := (len(stats) + config.VisitorsPerPage - 1) / config.VisitorsPerPage
		return b.Paginator.Create(e.Respond, paginator.Pages{
			ID:      e.ID().String(),
			Creator: e.User().ID,
			PageFunc: func(page int, embed *discord.EmbedBuilder) {
				embed.
					SetTitle(fmt.Sprintf("👥 %s visitors", venue.Name)).
					SetDescription(VisitorPage(stats, page)).
					SetColor(config.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • Visitors: %d", page+1, totalPages, len(stats)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, true)
	}
}

// VisitorPage renders one page of the ranked visitor list.
func VisitorPage(stats []models.VisitorStat, page int) string {
	start := page * config.VisitorsPerPage
	if start >= len(stats) {
		return ""
	}
	end := min(start+config.VisitorsPerPage, len(stats))

	var sb strings.Builder
	for i, s := range stats[start:end] {
		fmt.Fprintf(&sb, "`%2d.` %s (%s): **%s**\n",
			start+i+1, discord.UserMention(s.UserID), s.DisplayName(), plural(s.Count, "visit"))
	}
	return sb.String()
}

func VenueStatsHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdmin(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "view venue statistics")
		}

		data := e.SlashCommandInteractionData()
		start, err := optDate(data, "start-date")
		if err != nil {
			return utils.EH.CreateUserError(e, "Start date must be YYYYMMDD.")
		}
		end, err := optDate(data, "end-date")
		if err != nil {
			return utils.EH.CreateUserError(e, "End date must be YYYYMMDD.")
		}
		if start != nil && end != nil && start.After(*end) {
			return utils.EH.CreateUserError(e, "Start date is after end date.")
		}

		ctx, cancel := commandContext()
		defer cancel()

		code := data.String("code")
		venue, err := findVenue(ctx, b, e, code)
		if venue == nil {
			return err
		}

		stats, err := b.Stats.VenueStats(ctx, code, start, end)
		if err != nil {
			return utils.EH.CreateSystemError(e, "Failed to load statistics.")
		}
		if len(stats) == 0 {
			return utils.EH.CreateInfoEmbed(e, "No visits in the selected period.")
		}

		return e.CreateMessage(ephemeralEmbed(StatsEmbed(venue, stats, start, end)))
	}
}

// StatsEmbed charts the top visitors of a venue over an optional range.
func StatsEmbed(venue *models.Venue, stats []models.VisitorStat, start, end *clock.Date) discord.Embed {
	total := 0
	for _, s := range stats {
		total += s.Count
	}
	return discord.Embed{
		Title:       fmt.Sprintf("📊 %s statistics", venue.Name),
		Description: "```\n" + services.RenderBarChart(stats, config.ChartRows) + "\n```",
		Color:       config.StatsColor,
		Fields: []discord.EmbedField{
			{Name: "Period", Value: periodLabel(start, end), Inline: inline(true)},
			{Name: "Visitors", Value: fmt.Sprint(len(stats)), Inline: inline(true)},
			{Name: "Visits", Value: fmt.Sprint(total), Inline: inline(true)},
		},
	}
}

func periodLabel(start, end *clock.Date) string {
	switch {
	case start == nil && end == nil:
		return "all time"
	case start == nil:
		return "until " + end.String()
	case end == nil:
		return "since " + start.String()
	}
	return start.String() + " ~ " + end.String()
}

func optDate(data discord.SlashCommandInteractionData, name string) (*clock.Date, error) {
	raw, ok := data.OptString(name)
	if !ok || raw == "" {
		return nil, nil
	}
	d, err := clock.ParseCompactDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func VenueHistoryHandler(b *entrybot.Bot, perms Permissions) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		if !perms.IsAdminOrManager(ActorOf(e)) {
			return utils.EH.CreatePermissionError(e, "view visit history")
		}

		ctx, cancel := commandContext()
		defer cancel()

		user := e.SlashCommandInteractionData().User("user")
		history, err := b.Visits.AllVisitsForUser(ctx, user.ID)
		if err != nil {
			slog.Error("Failed to load visit history",
				slog.String("type", "db"),
				slog.String("user_id", user.ID.String()),
				slog.Any("error", err))
			return utils.EH.CreateSystemError(e, "Failed to load visit history.")
		}
		if len(history) == 0 {
			return utils.EH.CreateInfoEmbed(e, fmt.Sprintf("%s has no visits yet.", user.Username))
		}

		return e.CreateMessage(ephemeralEmbed(HistoryEmbed(user, history)))
	}
}

// HistoryEmbed lists a user's visits per venue, most visited first.
func HistoryEmbed(user discord.User, history []models.UserVenueSummary) discord.Embed {
	var sb strings.Builder
	total := 0
	for _, h := range history {
		total += h.VisitCount
		fmt.Fprintf(&sb, "**%s** (`%s`): %s, last %s\n", h.VenueName, h.VenueCode, plural(h.VisitCount, "visit"), h.LastVisitDate)
	}
	return discord.Embed{
		Title:       fmt.Sprintf("📜 %s's visit history", user.Username),
		Description: sb.String(),
		Color:       config.InfoColor,
		Footer: &discord.EmbedFooter{
			Text: fmt.Sprintf("%s across %s", plural(total, "visit"), plural(len(history), "venue")),
		},
	}
}
