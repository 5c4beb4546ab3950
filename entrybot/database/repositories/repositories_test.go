package repositories

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
)

const (
	alice snowflake.ID = 1001
	bob   snowflake.ID = 1002
)

type fixture struct {
	clock  *clock.Manual
	store  *database.Store
	venues VenueRepository
	visits VisitRepository
	tokens TokenRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, clock.KST))
	store := database.NewStore(database.NewMemoryBackend(), nil)
	venues := NewVenueRepository(store, c)
	return &fixture{
		clock:  c,
		store:  store,
		venues: venues,
		visits: NewVisitRepository(store, c, venues),
		tokens: NewTokenRepository(store, c),
	}
}

func day(d int) clock.Date {
	return clock.NewDate(2024, time.January, d)
}

func (f *fixture) record(t *testing.T, code string, user snowflake.ID, d int) bool {
	t.Helper()
	res, err := f.visits.RecordVisit(context.Background(), code, user, "user", "nick", day(d))
	require.NoError(t, err)
	return res.Created
}

func TestVenueCreateGetConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.venues.Create(ctx, &models.Venue{Code: "42", Name: "Cafe", OwnerID: alice}))

	err := f.venues.Create(ctx, &models.Venue{Code: "42", Name: "Other"})
	assert.True(t, IsConflict(err))

	v, err := f.venues.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", v.Code)
	assert.Equal(t, "Cafe", v.Name)
	assert.False(t, v.CreatedAt.IsZero())

	_, err = f.venues.Get(ctx, "07")
	assert.True(t, IsNotFound(err))
}

func TestVenueUpdateMergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	phrase := "sesame"
	require.NoError(t, f.venues.Create(ctx, &models.Venue{Code: "01", Name: "Cafe", Passphrase: &phrase}))

	f.clock.Advance(time.Hour)
	name := "Bar"
	updated, err := f.venues.Update(ctx, "01", models.VenuePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Bar", updated.Name)
	require.NotNil(t, updated.Passphrase)
	assert.Equal(t, "sesame", *updated.Passphrase)
	require.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.Equal(f.clock.Now()))

	_, err = f.venues.Update(ctx, "01", models.VenuePatch{ClearPassphrase: true})
	require.NoError(t, err)
	v, err := f.venues.Get(ctx, "01")
	require.NoError(t, err)
	assert.Nil(t, v.Passphrase)

	_, err = f.venues.Update(ctx, "99", models.VenuePatch{Name: &name})
	assert.True(t, IsNotFound(err))
}

func TestVenueListSortedAndByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, v := range []models.Venue{
		{Code: "30", Name: "C", OwnerID: alice},
		{Code: "05", Name: "A", OwnerID: bob},
		{Code: "12", Name: "B", OwnerID: alice},
	} {
		v := v
		require.NoError(t, f.venues.Create(ctx, &v))
	}

	all, err := f.venues.List(ctx)
	require.NoError(t, err)
	var codes []string
	for _, v := range all {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"05", "12", "30"}, codes)

	mine, err := f.venues.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "12", mine[0].Code)
	assert.Equal(t, "30", mine[1].Code)
}

func TestDailyUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.visits.RecordVisit(ctx, "42", alice, "alice", "Al", day(1))
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "09:00:00", first.Visit.VisitTime)

	f.clock.Advance(2 * time.Hour)
	second, err := f.visits.RecordVisit(ctx, "42", alice, "alice", "Al", day(1))
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Visit.VisitTime, second.Visit.VisitTime)

	visits, err := f.visits.VisitsForVenue(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestConcurrentRecordVisitCreatesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.visits.RecordVisit(ctx, "42", alice, "alice", "", day(1))
			if err != nil {
				t.Error(err)
				return
			}
			if res.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	count, err := f.visits.CountVisits(ctx, "42", alice)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCountMonotonicity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	successes := 0
	for d := 1; d <= 5; d++ {
		if f.record(t, "42", alice, d) {
			successes++
		}
		assert.False(t, f.record(t, "42", alice, d))
		f.record(t, "42", bob, d)
	}

	count, err := f.visits.CountVisits(ctx, "42", alice)
	require.NoError(t, err)
	assert.Equal(t, 5, successes)
	assert.Equal(t, 5, count)
}

func TestResetTodayScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, "42", alice, 1)
	f.record(t, "42", alice, 2)
	f.record(t, "42", bob, 2)

	reset, err := f.visits.ResetToday(ctx, "42", alice, day(2))
	require.NoError(t, err)
	assert.True(t, reset)

	again, err := f.visits.ResetToday(ctx, "42", alice, day(2))
	require.NoError(t, err)
	assert.False(t, again)

	aliceCount, _ := f.visits.CountVisits(ctx, "42", alice)
	bobCount, _ := f.visits.CountVisits(ctx, "42", bob)
	assert.Equal(t, 1, aliceCount)
	assert.Equal(t, 1, bobCount)

	assert.True(t, f.record(t, "42", alice, 2))
}

func TestDeleteAllForUserScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, "42", alice, 1)
	f.record(t, "42", alice, 2)
	f.record(t, "42", alice, 3)
	f.record(t, "42", bob, 1)
	f.record(t, "07", alice, 1)

	n, err := f.visits.DeleteAllForUser(ctx, "42", alice)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.visits.DeleteAllForUser(ctx, "42", alice)
	require.NoError(t, err)
	assert.Zero(t, n)

	other, _ := f.visits.CountVisits(ctx, "07", alice)
	bobCount, _ := f.visits.CountVisits(ctx, "42", bob)
	assert.Equal(t, 1, other)
	assert.Equal(t, 1, bobCount)
}

func TestVenueDeletionOrphansVisits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.venues.Create(ctx, &models.Venue{Code: "42", Name: "Cafe"}))
	require.NoError(t, f.venues.Create(ctx, &models.Venue{Code: "07", Name: "Gym"}))
	f.record(t, "42", alice, 1)
	f.record(t, "42", alice, 3)
	f.record(t, "07", alice, 2)

	require.NoError(t, f.venues.Delete(ctx, "42"))
	assert.True(t, IsNotFound(f.venues.Delete(ctx, "42")))

	summaries, err := f.visits.AllVisitsForUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, models.UserVenueSummary{VenueCode: "42", VenueName: "42", VisitCount: 2, LastVisitDate: day(3)}, summaries[0])
	assert.Equal(t, models.UserVenueSummary{VenueCode: "07", VenueName: "Gym", VisitCount: 1, LastVisitDate: day(2)}, summaries[1])

	rows, err := f.visits.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "42", rows[0].VenueName)
}

func TestExportOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.venues.Create(ctx, &models.Venue{Code: "42", Name: "Cafe"}))

	f.record(t, "42", alice, 1)
	f.clock.Advance(time.Hour)
	f.record(t, "42", bob, 1)
	f.record(t, "42", alice, 2)
	f.record(t, "07", bob, 2)

	rows, err := f.visits.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, day(2), rows[0].VisitDate)
	assert.Equal(t, day(2), rows[1].VisitDate)
	assert.Equal(t, day(1), rows[2].VisitDate)
	assert.Equal(t, "10:00:00", rows[2].VisitTime)
	assert.Equal(t, "09:00:00", rows[3].VisitTime)
	assert.Equal(t, "Cafe", rows[3].VenueName)

	venueRows, err := f.visits.ExportVenue(ctx, "07")
	require.NoError(t, err)
	require.Len(t, venueRows, 1)
	assert.Equal(t, bob, venueRows[0].UserID)
}

func TestTokenLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.tokens.Issue(ctx, alice, "alice", time.Hour)
	require.NoError(t, err)
	assert.Len(t, tok.Token, 32)

	got, err := f.tokens.Verify(ctx, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, alice, got.UserID)

	f.clock.Advance(time.Hour)
	_, err = f.tokens.Verify(ctx, tok.Token)
	require.NoError(t, err, "expiry instant is still valid")

	f.clock.Advance(time.Second)
	_, err = f.tokens.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.tokens.Verify(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsDeletedOnVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tok, err := f.tokens.Issue(ctx, alice, "alice", 0)
	require.NoError(t, err)

	_, err = f.tokens.Verify(ctx, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	var raw map[string]any
	require.NoError(t, f.store.Load(ctx, database.CollectionTokens, &raw))
	assert.NotContains(t, raw, tok.Token)
}

func TestCleanupExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tokens.Issue(ctx, alice, "alice", time.Minute)
	require.NoError(t, err)
	keep, err := f.tokens.Issue(ctx, bob, "bob", time.Hour)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	n, err := f.tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.tokens.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.tokens.Verify(ctx, keep.Token)
	assert.NoError(t, err)
}

func TestStorageFaultsAreDistinct(t *testing.T) {
	ctx := context.Background()
	backend := database.NewMemoryBackend()
	require.NoError(t, backend.Write(ctx, database.CollectionVisits, []byte("[broken")))

	store := database.NewStore(backend, nil)
	c := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, clock.KST))
	visits := NewVisitRepository(store, c, NewVenueRepository(store, c))

	_, err := visits.RecordVisit(ctx, "42", alice, "alice", "", day(1))
	assert.ErrorIs(t, err, database.ErrStorage)
	assert.False(t, IsNotFound(err))
}

func TestLoadsLegacyNumericIDFiles(t *testing.T) {
	ctx := context.Background()
	backend := database.NewMemoryBackend()
	require.NoError(t, backend.Write(ctx, database.CollectionStores, []byte(`{
		"42": {"store_name": "Cafe", "min_role_id": null, "grant_role_id": null,
			"passphrase": null, "owner_id": 1002, "guild_id": 77,
			"created_at": "2023-12-31T09:00:00+09:00"}
	}`)))
	require.NoError(t, backend.Write(ctx, database.CollectionVisits, []byte(`{
		"42": [{"user_id": 123456789012345678, "username": "alice", "nickname": "Al",
			"visit_date": "2024-01-01", "visit_time": "10:00:00",
			"created_at": "2024-01-01T10:00:00.123456+09:00"}]
	}`)))
	require.NoError(t, backend.Write(ctx, database.CollectionTokens, []byte(`{
		"legacy-token": {"user_id": 1001, "username": "admin",
			"created_at": "2024-01-01T08:30:00+09:00",
			"expires_at": "2024-01-01T09:30:00+09:00"}
	}`)))

	store := database.NewStore(backend, nil)
	c := clock.NewManual(time.Date(2024, 1, 1, 9, 0, 0, 0, clock.KST))
	venues := NewVenueRepository(store, c)
	visits := NewVisitRepository(store, c, venues)
	tokens := NewTokenRepository(store, c)

	venue, err := venues.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1002), venue.OwnerID)

	count, err := visits.CountVisits(ctx, "42", 123456789012345678)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	res, err := visits.RecordVisit(ctx, "42", 123456789012345678, "alice", "Al", day(1))
	require.NoError(t, err)
	assert.False(t, res.Created)

	tok, err := tokens.Verify(ctx, "legacy-token")
	require.NoError(t, err)
	assert.Equal(t, snowflake.ID(1001), tok.UserID)
}
