package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

const (
	DefaultStatsDays = 30
	barChartWidth    = 12
	chartNameWidth   = 10
)

// StatsService derives visitor and daily aggregates from the ledger. Every
// call recomputes from the full visit collection.
type StatsService struct {
	visits repositories.VisitRepository
	venues repositories.VenueRepository
	clock  clock.Clock
}

func NewStatsService(visits repositories.VisitRepository, venues repositories.VenueRepository, c clock.Clock) *StatsService {
	return &StatsService{visits: visits, venues: venues, clock: c}
}

// VenueStats counts visits per user inside the inclusive [start, end] range.
// Nil bounds are open. Sorted by count descending, then user id.
func (s *StatsService) VenueStats(ctx context.Context, code string, start, end *clock.Date) ([]models.VisitorStat, error) {
	visits, err := s.visits.VisitsForVenue(ctx, code)
	if err != nil {
		return nil, err
	}

	byUser := make(map[snowflake.ID]*models.VisitorStat)
	var order []snowflake.ID
	for _, v := range visits {
		if !v.VisitDate.InRange(start, end) {
			continue
		}
		stat, ok := byUser[v.UserID]
		if !ok {
			stat = &models.VisitorStat{UserID: v.UserID, Username: v.Username, Nickname: v.Nickname}
			byUser[v.UserID] = stat
			order = append(order, v.UserID)
		}
		stat.Count++
	}

	result := make([]models.VisitorStat, 0, len(order))
	for _, id := range order {
		result = append(result, *byUser[id])
	}
	sortStats(result)
	return result, nil
}

// CrossVenueVisitorStats sums every user's visits across all venues.
func (s *StatsService) CrossVenueVisitorStats(ctx context.Context) ([]models.VisitorStat, error) {
	all, err := s.visits.AllVisits(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	byUser := make(map[snowflake.ID]*models.VisitorStat)
	for _, code := range codes {
		for _, v := range all[code] {
			stat, ok := byUser[v.UserID]
			if !ok {
				stat = &models.VisitorStat{UserID: v.UserID, Username: v.Username, Nickname: v.Nickname}
				byUser[v.UserID] = stat
			}
			stat.Count++
		}
	}

	result := make([]models.VisitorStat, 0, len(byUser))
	for _, stat := range byUser {
		result = append(result, *stat)
	}
	sortStats(result)
	return result, nil
}

func sortStats(stats []models.VisitorStat) {
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].UserID < stats[j].UserID
	})
}

// DailyStats returns one bucket per day for the trailing days ending today,
// oldest first. A nil code aggregates every venue.
func (s *StatsService) DailyStats(ctx context.Context, code *string, days int) ([]models.DailyCount, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}

	var visits []models.Visit
	if code != nil {
		list, err := s.visits.VisitsForVenue(ctx, *code)
		if err != nil {
			return nil, err
		}
		visits = list
	} else {
		all, err := s.visits.AllVisits(ctx)
		if err != nil {
			return nil, err
		}
		for _, list := range all {
			visits = append(visits, list...)
		}
	}

	today := clock.Today(s.clock)
	first := today.AddDays(-(days - 1))

	buckets := make([]models.DailyCount, days)
	index := make(map[string]int, days)
	for i := range buckets {
		d := first.AddDays(i)
		buckets[i] = models.DailyCount{Date: d}
		index[d.String()] = i
	}
	for _, v := range visits {
		if i, ok := index[v.VisitDate.String()]; ok {
			buckets[i].Count++
		}
	}
	return buckets, nil
}

// VenueSummaries lists every registered venue with its all-time visit count.
func (s *StatsService) VenueSummaries(ctx context.Context) ([]models.VenueSummary, error) {
	venues, err := s.venues.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.visits.AllVisits(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]models.VenueSummary, 0, len(venues))
	for _, v := range venues {
		result = append(result, models.VenueSummary{
			Code:       v.Code,
			Name:       v.Name,
			VisitCount: len(all[v.Code]),
		})
	}
	return result, nil
}

// RenderBarChart draws up to limit rows of "name bar count". Bars scale to
// the top count; names are cut to ten characters.
func RenderBarChart(stats []models.VisitorStat, limit int) string {
	if len(stats) == 0 {
		return ""
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}

	maxCount := 0
	for _, s := range stats {
		maxCount = max(maxCount, s.Count)
	}

	var b strings.Builder
	for i, s := range stats {
		if i > 0 {
			b.WriteByte('\n')
		}
		bar := 0
		if maxCount > 0 {
			bar = int(math.Round(float64(s.Count) / float64(maxCount) * barChartWidth))
		}
		fmt.Fprintf(&b, "%-*s %s %d", chartNameWidth, chartName(s), strings.Repeat("█", bar), s.Count)
	}
	return b.String()
}

func chartName(s models.VisitorStat) string {
	name := s.DisplayName()
	if name == "" {
		name = s.UserID.String()
	}
	runes := []rune(name)
	if len(runes) > chartNameWidth {
		return string(runes[:chartNameWidth-1]) + "…"
	}
	return name
}
