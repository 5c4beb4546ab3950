package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
)

// Visit is one recorded check-in. At most one exists per venue, user and date.
type Visit struct {
	UserID    snowflake.ID `json:"user_id"`
	Username  string       `json:"username"`
	Nickname  string       `json:"nickname"`
	VisitDate clock.Date   `json:"visit_date"`
	VisitTime string       `json:"visit_time"`
	CreatedAt time.Time    `json:"created_at"`
}

// UserVenueSummary groups one user's visits at a single venue.
type UserVenueSummary struct {
	VenueCode     string     `json:"store_code"`
	VenueName     string     `json:"store_name"`
	VisitCount    int        `json:"visit_count"`
	LastVisitDate clock.Date `json:"last_visit"`
}

// ExportRow is a flattened visit with the venue name resolved.
type ExportRow struct {
	VenueCode string       `json:"store_code"`
	VenueName string       `json:"store_name"`
	UserID    snowflake.ID `json:"user_id"`
	Username  string       `json:"username"`
	Nickname  string       `json:"nickname"`
	VisitDate clock.Date   `json:"visit_date"`
	VisitTime string       `json:"visit_time"`
}

// VisitorStat is a per-user visit count.
type VisitorStat struct {
	UserID   snowflake.ID `json:"user_id"`
	Username string       `json:"username"`
	Nickname string       `json:"nickname"`
	Count    int          `json:"count"`
}

// DisplayName prefers the nickname captured at check-in time.
func (s VisitorStat) DisplayName() string {
	if s.Nickname != "" {
		return s.Nickname
	}
	return s.Username
}

// DailyCount is one bucket of the daily histogram.
type DailyCount struct {
	Date  clock.Date `json:"date"`
	Count int        `json:"count"`
}

// VenueSummary is a venue with its all-time visit total.
type VenueSummary struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	VisitCount int    `json:"visit_count"`
}
