package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

const (
	userA snowflake.ID = 1
	userB snowflake.ID = 2
)

func newStatsFixture(t *testing.T) (*StatsService, repositories.VenueRepository, repositories.VisitRepository, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(time.Date(2024, 1, 5, 12, 0, 0, 0, clock.KST))
	store := database.NewStore(database.NewMemoryBackend(), nil)
	venues := repositories.NewVenueRepository(store, c)
	visits := repositories.NewVisitRepository(store, c, venues)
	return NewStatsService(visits, venues, c), venues, visits, c
}

func jan(d int) clock.Date {
	return clock.NewDate(2024, time.January, d)
}

func mustRecord(t *testing.T, visits repositories.VisitRepository, code string, user snowflake.ID, name string, d int) {
	t.Helper()
	_, err := visits.RecordVisit(context.Background(), code, user, name, "", jan(d))
	require.NoError(t, err)
}

func TestVenueStatsRange(t *testing.T) {
	s, _, visits, _ := newStatsFixture(t)
	mustRecord(t, visits, "42", userA, "a", 1)
	mustRecord(t, visits, "42", userA, "a", 2)
	mustRecord(t, visits, "42", userA, "a", 3)
	mustRecord(t, visits, "42", userB, "b", 2)
	mustRecord(t, visits, "07", userB, "b", 2)

	start, end := jan(2), jan(3)
	stats, err := s.VenueStats(context.Background(), "42", &start, &end)
	require.NoError(t, err)

	require.Len(t, stats, 2)
	assert.Equal(t, userA, stats[0].UserID)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, userB, stats[1].UserID)
	assert.Equal(t, 1, stats[1].Count)

	all, err := s.VenueStats(context.Background(), "42", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all[0].Count)

	empty, err := s.VenueStats(context.Background(), "99", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVenueStatsTiesBreakByUserID(t *testing.T) {
	s, _, visits, _ := newStatsFixture(t)
	mustRecord(t, visits, "42", userB, "b", 1)
	mustRecord(t, visits, "42", userA, "a", 1)

	stats, err := s.VenueStats(context.Background(), "42", nil, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, userA, stats[0].UserID)
}

func TestCrossVenueVisitorStats(t *testing.T) {
	s, _, visits, _ := newStatsFixture(t)
	mustRecord(t, visits, "42", userA, "a", 1)
	mustRecord(t, visits, "07", userA, "a", 1)
	mustRecord(t, visits, "07", userB, "b", 1)
	mustRecord(t, visits, "07", userB, "b", 2)
	mustRecord(t, visits, "07", userB, "b", 3)

	stats, err := s.CrossVenueVisitorStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, models.VisitorStat{UserID: userB, Username: "b", Count: 3}, stats[0])
	assert.Equal(t, models.VisitorStat{UserID: userA, Username: "a", Count: 2}, stats[1])
}

func TestDailyStats(t *testing.T) {
	s, _, visits, _ := newStatsFixture(t)
	mustRecord(t, visits, "42", userA, "a", 5)
	mustRecord(t, visits, "42", userB, "b", 5)
	mustRecord(t, visits, "42", userA, "a", 3)
	mustRecord(t, visits, "07", userA, "a", 4)
	mustRecord(t, visits, "07", userA, "a", 1)

	code := "42"
	stats, err := s.DailyStats(context.Background(), &code, 3)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyCount{
		{Date: jan(3), Count: 1},
		{Date: jan(4), Count: 0},
		{Date: jan(5), Count: 2},
	}, stats)

	all, err := s.DailyStats(context.Background(), nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, []int{all[0].Count, all[1].Count, all[2].Count})

	defaults, err := s.DailyStats(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, DefaultStatsDays)
	assert.Equal(t, jan(5), defaults[len(defaults)-1].Date)
}

func TestVenueSummaries(t *testing.T) {
	s, venues, visits, _ := newStatsFixture(t)
	ctx := context.Background()
	require.NoError(t, venues.Create(ctx, &models.Venue{Code: "42", Name: "Cafe"}))
	require.NoError(t, venues.Create(ctx, &models.Venue{Code: "07", Name: "Gym"}))
	mustRecord(t, visits, "42", userA, "a", 1)
	mustRecord(t, visits, "42", userA, "a", 2)
	mustRecord(t, visits, "99", userA, "a", 2)

	got, err := s.VenueSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.VenueSummary{
		{Code: "07", Name: "Gym", VisitCount: 0},
		{Code: "42", Name: "Cafe", VisitCount: 2},
	}, got)
}

func TestRenderBarChart(t *testing.T) {
	stats := []models.VisitorStat{
		{UserID: 1, Nickname: "Alexandria the Great", Count: 4},
		{UserID: 2, Username: "bob", Count: 2},
		{UserID: 3, Count: 1},
	}

	chart := RenderBarChart(stats, 15)
	lines := strings.Split(chart, "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, "Alexandri… "+strings.Repeat("█", 12)+" 4", lines[0])
	assert.Equal(t, "bob        "+strings.Repeat("█", 6)+" 2", lines[1])
	assert.Equal(t, "3          "+strings.Repeat("█", 3)+" 1", lines[2])

	assert.Len(t, strings.Split(RenderBarChart(stats, 2), "\n"), 2)
	assert.Empty(t, RenderBarChart(nil, 15))
}
