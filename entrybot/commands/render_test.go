package commands

import (
	"fmt"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/config"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/services"
)

func TestVenueMessage(t *testing.T) {
	qr := services.NewQRService("https://entry.example.com")
	grant := snowflake.ID(55)
	phrase := "open"
	v := &models.Venue{Code: "07", Name: "Cafe", GrantRoleID: &grant, Passphrase: &phrase}

	msg := VenueMessage(qr, v)
	require.Len(t, msg.Embeds, 1)
	embed := msg.Embeds[0]

	assert.Contains(t, embed.Title, "Cafe")
	assert.Len(t, embed.Fields, 6)
	assert.Equal(t, "https://entry.example.com/?loc=07", embed.Fields[1].Value)
	assert.Equal(t, "https://entry.example.com/qr/07.png", embed.Image.URL)
	assert.Equal(t, "✅ set", embed.Fields[5].Value)
	assert.Len(t, msg.Components, 1)

	assert.Equal(t, "/checkin/07", CheckinButtonID("07"))
	assert.Equal(t, "/checkin-modal/07", CheckinModalID("07"))
	assert.Equal(t, "/checkin-modal/07", PassphraseModal(v).CustomID)
}

func TestVisitorPage(t *testing.T) {
	stats := make([]models.VisitorStat, 0, 25)
	for i := range 25 {
		stats = append(stats, models.VisitorStat{UserID: snowflake.ID(i + 1), Username: fmt.Sprintf("user%d", i+1), Count: 25 - i})
	}

	first := VisitorPage(stats, 0)
	assert.Equal(t, config.VisitorsPerPage, strings.Count(first, "\n"))
	assert.True(t, strings.HasPrefix(first, "` 1.` <@1> (user1): **25 visits**"))

	second := VisitorPage(stats, 1)
	assert.Equal(t, 5, strings.Count(second, "\n"))
	assert.Contains(t, second, "(user25): **1 visit**")

	assert.Empty(t, VisitorPage(stats, 2))
}

func TestCheckinResultEmbed(t *testing.T) {
	grant := snowflake.ID(9)
	venue := &models.Venue{Code: "12", Name: "Bar", GrantRoleID: &grant}

	tests := []struct {
		name   string
		result services.CheckinResult
		color  int
		fields int
	}{
		{"checked in with role", services.CheckinResult{Outcome: services.OutcomeCheckedIn, Venue: venue, VisitCount: 1, RoleGranted: true}, config.SuccessColor, 3},
		{"checked in", services.CheckinResult{Outcome: services.OutcomeCheckedIn, Venue: venue, VisitCount: 3}, config.SuccessColor, 2},
		{"already", services.CheckinResult{Outcome: services.OutcomeAlreadyCheckedIn, Venue: venue}, config.InfoColor, 0},
		{"mismatch", services.CheckinResult{Outcome: services.OutcomePassphraseMismatch, Venue: venue}, config.WarningColor, 0},
		{"unknown venue", services.CheckinResult{Outcome: services.OutcomeVenueNotFound}, config.ErrorColor, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embed := CheckinResultEmbed(&tt.result)
			assert.Equal(t, tt.color, embed.Color)
			assert.Len(t, embed.Fields, tt.fields)
			assert.Equal(t, tt.result.Message(), embed.Description)
		})
	}
}

func TestStatsEmbed(t *testing.T) {
	venue := &models.Venue{Code: "01", Name: "Cafe"}
	stats := []models.VisitorStat{
		{UserID: 1, Username: "alice", Count: 4},
		{UserID: 2, Username: "bob", Count: 2},
	}
	start := clock.NewDate(2024, 1, 1)

	embed := StatsEmbed(venue, stats, &start, nil)
	assert.Equal(t, config.StatsColor, embed.Color)
	assert.True(t, strings.HasPrefix(embed.Description, "```\n"))
	assert.Contains(t, embed.Description, "alice")
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "since 2024-01-01", embed.Fields[0].Value)
	assert.Equal(t, "2", embed.Fields[1].Value)
	assert.Equal(t, "6", embed.Fields[2].Value)

	end := clock.NewDate(2024, 1, 31)
	assert.Equal(t, "all time", periodLabel(nil, nil))
	assert.Equal(t, "until 2024-01-31", periodLabel(nil, &end))
	assert.Equal(t, "2024-01-01 ~ 2024-01-31", periodLabel(&start, &end))
}

func TestHistoryEmbed(t *testing.T) {
	history := []models.UserVenueSummary{
		{VenueCode: "01", VenueName: "Cafe", VisitCount: 3, LastVisitDate: clock.NewDate(2024, 2, 1)},
		{VenueCode: "02", VenueName: "Bar", VisitCount: 1, LastVisitDate: clock.NewDate(2024, 1, 5)},
	}
	embed := HistoryEmbed(discord.User{ID: 1, Username: "alice"}, history)

	assert.Contains(t, embed.Description, "**Cafe** (`01`): 3 visits, last 2024-02-01")
	assert.Contains(t, embed.Description, "**Bar** (`02`): 1 visit, last 2024-01-05")
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "4 visits across 2 venues", embed.Footer.Text)
}

func TestVenueChoices(t *testing.T) {
	venues := make([]*models.Venue, 0, 30)
	for i := range 30 {
		venues = append(venues, &models.Venue{Code: fmt.Sprintf("%02d", i+1), Name: "Venue"})
	}

	choices := VenueChoices(venues)
	require.Len(t, choices, services.MaxAutocompleteChoices)
	first, ok := choices[0].(discord.AutocompleteChoiceString)
	require.True(t, ok)
	assert.Equal(t, "Venue (01)", first.Name)
	assert.Equal(t, "01", first.Value)
}

func TestDashboardURL(t *testing.T) {
	assert.Equal(t, "https://entry.example.com/dashboard?token=a%2Bb", DashboardURL("https://entry.example.com", "a+b"))
}

func TestModalPassphraseIsTrimmed(t *testing.T) {
	data := discord.ModalSubmitInteractionData{
		CustomID: CheckinModalID("07"),
		Components: map[string]discord.InteractiveComponent{
			passphraseInputID: discord.TextInputComponent{CustomID: passphraseInputID, Value: "  open \n"},
		},
	}
	assert.Equal(t, "open", modalPassphrase(data))

	assert.Empty(t, modalPassphrase(discord.ModalSubmitInteractionData{}))
}
