package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
)

// VenueNamer resolves venue display names for ledger reports.
type VenueNamer interface {
	VenueNames(ctx context.Context) (map[string]string, error)
}

// RecordResult reports whether RecordVisit appended a visit. When Created is
// false, Visit is the record already on file for that day.
type RecordResult struct {
	Created bool
	Visit   models.Visit
}

type VisitRepository interface {
	RecordVisit(ctx context.Context, code string, userID snowflake.ID, username, nickname string, today clock.Date) (RecordResult, error)
	CountVisits(ctx context.Context, code string, userID snowflake.ID) (int, error)
	VisitsForVenue(ctx context.Context, code string) ([]models.Visit, error)
	AllVisits(ctx context.Context) (map[string][]models.Visit, error)
	AllVisitsForUser(ctx context.Context, userID snowflake.ID) ([]models.UserVenueSummary, error)
	ResetToday(ctx context.Context, code string, userID snowflake.ID, today clock.Date) (bool, error)
	DeleteAllForUser(ctx context.Context, code string, userID snowflake.ID) (int, error)
	ExportAll(ctx context.Context) ([]models.ExportRow, error)
	ExportVenue(ctx context.Context, code string) ([]models.ExportRow, error)
}

type visitRepository struct {
	mu     sync.Mutex
	store  *database.Store
	clock  clock.Clock
	venues VenueNamer
}

func NewVisitRepository(store *database.Store, c clock.Clock, venues VenueNamer) VisitRepository {
	return &visitRepository{store: store, clock: c, venues: venues}
}

// load must be called with mu held.
func (r *visitRepository) load(ctx context.Context) (map[string][]models.Visit, error) {
	visits := make(map[string][]models.Visit)
	if err := r.store.Load(ctx, database.CollectionVisits, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *visitRepository) save(ctx context.Context, visits map[string][]models.Visit) error {
	return r.store.Save(ctx, database.CollectionVisits, visits)
}

func (r *visitRepository) RecordVisit(ctx context.Context, code string, userID snowflake.ID, username, nickname string, today clock.Date) (RecordResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return RecordResult{}, err
	}

	for _, v := range visits[code] {
		if v.UserID == userID && v.VisitDate.Equal(today) {
			return RecordResult{Created: false, Visit: v}, nil
		}
	}

	now := r.clock.Now()
	visit := models.Visit{
		UserID:    userID,
		Username:  username,
		Nickname:  nickname,
		VisitDate: today,
		VisitTime: now.Format(clock.TimeLayout),
		CreatedAt: now,
	}
	visits[code] = append(visits[code], visit)
	if err := r.save(ctx, visits); err != nil {
		return RecordResult{}, err
	}
	return RecordResult{Created: true, Visit: visit}, nil
}

func (r *visitRepository) CountVisits(ctx context.Context, code string, userID snowflake.ID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, v := range visits[code] {
		if v.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *visitRepository) VisitsForVenue(ctx context.Context, code string) ([]models.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return visits[code], nil
}

// AllVisits returns the whole ledger keyed by venue code.
func (r *visitRepository) AllVisits(ctx context.Context) (map[string][]models.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}

func (r *visitRepository) AllVisitsForUser(ctx context.Context, userID snowflake.ID) ([]models.UserVenueSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.venues.VenueNames(ctx)
	if err != nil {
		return nil, err
	}

	var result []models.UserVenueSummary
	for code, list := range visits {
		summary := models.UserVenueSummary{VenueCode: code, VenueName: venueName(names, code)}
		for _, v := range list {
			if v.UserID != userID {
				continue
			}
			summary.VisitCount++
			if v.VisitDate.After(summary.LastVisitDate) {
				summary.LastVisitDate = v.VisitDate
			}
		}
		if summary.VisitCount > 0 {
			result = append(result, summary)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if c := result[i].LastVisitDate.Compare(result[j].LastVisitDate); c != 0 {
			return c > 0
		}
		return result[i].VenueCode < result[j].VenueCode
	})
	return result, nil
}

// ResetToday removes the user's visit for today only.
func (r *visitRepository) ResetToday(ctx context.Context, code string, userID snowflake.ID, today clock.Date) (bool, error) {
	removed, err := r.remove(ctx, code, func(v models.Visit) bool {
		return v.UserID == userID && v.VisitDate.Equal(today)
	})
	return removed > 0, err
}

// DeleteAllForUser removes every visit of the user at the venue.
func (r *visitRepository) DeleteAllForUser(ctx context.Context, code string, userID snowflake.ID) (int, error) {
	return r.remove(ctx, code, func(v models.Visit) bool {
		return v.UserID == userID
	})
}

func (r *visitRepository) remove(ctx context.Context, code string, match func(models.Visit) bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return 0, err
	}
	list, ok := visits[code]
	if !ok {
		return 0, nil
	}

	kept := list[:0:0]
	for _, v := range list {
		if !match(v) {
			kept = append(kept, v)
		}
	}
	removed := len(list) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	visits[code] = kept
	if err := r.save(ctx, visits); err != nil {
		return 0, err
	}
	return removed, nil
}

// ExportAll flattens the ledger, most recent visit first.
func (r *visitRepository) ExportAll(ctx context.Context) ([]models.ExportRow, error) {
	return r.export(ctx, func(string) bool { return true })
}

func (r *visitRepository) ExportVenue(ctx context.Context, code string) ([]models.ExportRow, error) {
	return r.export(ctx, func(c string) bool { return c == code })
}

func (r *visitRepository) export(ctx context.Context, include func(code string) bool) ([]models.ExportRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visits, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	names, err := r.venues.VenueNames(ctx)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(visits))
	for code := range visits {
		if include(code) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	var rows []models.ExportRow
	for _, code := range codes {
		name := venueName(names, code)
		for _, v := range visits[code] {
			rows = append(rows, models.ExportRow{
				VenueCode: code,
				VenueName: name,
				UserID:    v.UserID,
				Username:  v.Username,
				Nickname:  v.Nickname,
				VisitDate: v.VisitDate,
				VisitTime: v.VisitTime,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := rows[i].VisitDate.Compare(rows[j].VisitDate); c != 0 {
			return c > 0
		}
		return rows[i].VisitTime > rows[j].VisitTime
	})
	return rows, nil
}

// venueName falls back to the code for deleted venues.
func venueName(names map[string]string, code string) string {
	if name, ok := names[code]; ok && name != "" {
		return name
	}
	return code
}
