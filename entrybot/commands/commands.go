package commands

import (
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/disgoorg/entry-bot/entrybot"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/handlers"
)

var Commands = []discord.ApplicationCommandCreate{
	VenueRegister,
	VenueUpdate,
	VenueDelete,
	VenueList,
	VenueVisitors,
	VenueStats,
	VenueHistory,
	VenueExport,
	VenueResetCheckin,
	VenueDeleteVisits,
	Entry,
	Dashboard,
}

// Register mounts every command, component and modal handler on h.
func Register(h *handler.Mux, b *entrybot.Bot) {
	perms := NewPermissions(b.Cfg.Access)

	h.Command("/venue-register", handlers.WrapWithLogging("venue-register", VenueRegisterHandler(b, perms)))
	h.Command("/venue-update", handlers.WrapWithLogging("venue-update", VenueUpdateHandler(b, perms)))
	h.Command("/venue-delete", handlers.WrapWithLogging("venue-delete", VenueDeleteHandler(b, perms)))
	h.Command("/venue-list", handlers.WrapWithLogging("venue-list", VenueListHandler(b, perms)))
	h.Command("/venue-visitors", handlers.WrapWithLogging("venue-visitors", VenueVisitorsHandler(b, perms)))
	h.Command("/venue-stats", handlers.WrapWithLogging("venue-stats", VenueStatsHandler(b, perms)))
	h.Command("/venue-history", handlers.WrapWithLogging("venue-history", VenueHistoryHandler(b, perms)))
	h.Command("/venue-export", handlers.WrapWithLoggingTimeout("venue-export", config.ExportTimeout, VenueExportHandler(b, perms)))
	h.Command("/venue-reset-checkin", handlers.WrapWithLogging("venue-reset-checkin", VenueResetCheckinHandler(b, perms)))
	h.Command("/venue-delete-visits", handlers.WrapWithLogging("venue-delete-visits", VenueDeleteVisitsHandler(b, perms)))
	h.Command("/entry", handlers.WrapWithLogging("entry", EntryHandler(b)))
	h.Command("/dashboard", handlers.WrapWithLogging("dashboard", DashboardHandler(b, perms)))

	for _, name := range []string{"venue-update", "venue-delete", "venue-visitors", "venue-stats", "venue-reset-checkin", "venue-delete-visits", "venue-export", "entry"} {
		h.Autocomplete("/"+name, VenueCodeAutocomplete(b))
	}

	h.Component("/checkin/{code}", handlers.WrapComponentWithLogging("checkin", CheckinButtonHandler(b)))
	h.Modal("/checkin-modal/{code}", handlers.WrapModalWithLogging("checkin-modal", CheckinModalHandler(b)))
}

func ko(s string) map[discord.Locale]string {
	return map[discord.Locale]string{discord.LocaleKorean: s}
}

func venueCodeOption(description string) discord.ApplicationCommandOptionString {
	return discord.ApplicationCommandOptionString{
		Name:                     "code",
		NameLocalizations:        ko("매장코드"),
		Description:              description,
		DescriptionLocalizations: ko("매장 코드"),
		Required:                 true,
		Autocomplete:             true,
	}
}

func userOption(description, koDescription string) discord.ApplicationCommandOptionUser {
	return discord.ApplicationCommandOptionUser{
		Name:                     "user",
		NameLocalizations:        ko("유저"),
		Description:              description,
		DescriptionLocalizations: ko(koDescription),
		Required:                 true,
	}
}
