package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disgoorg/entry-bot/entrybot/clock"
	"github.com/disgoorg/entry-bot/entrybot/database"
	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

func newVenueRepo() repositories.VenueRepository {
	c := clock.NewManual(time.Date(2024, 1, 5, 12, 0, 0, 0, clock.KST))
	return repositories.NewVenueRepository(database.NewStore(database.NewMemoryBackend(), nil), c)
}

func TestCodeGeneratorFormat(t *testing.T) {
	g := NewCodeGenerator(newVenueRepo())
	g.intn = func(int) int { return 6 }

	code, err := g.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "07", code)
}

func TestCodeGeneratorSkipsTaken(t *testing.T) {
	ctx := context.Background()
	venues := newVenueRepo()
	require.NoError(t, venues.Create(ctx, &models.Venue{Code: "07", Name: "Taken"}))

	draws := []int{6, 6, 41}
	g := NewCodeGenerator(venues)
	g.intn = func(int) int {
		n := draws[0]
		draws = draws[1:]
		return n
	}

	code, err := g.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", code)
}

func TestCodeGeneratorFallsBackToSweep(t *testing.T) {
	ctx := context.Background()
	venues := newVenueRepo()
	require.NoError(t, venues.Create(ctx, &models.Venue{Code: "01", Name: "Taken"}))

	g := NewCodeGenerator(venues)
	g.attempts = 3
	g.intn = func(int) int { return 0 }

	code, err := g.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "02", code)
}

func TestCodeGeneratorExhausted(t *testing.T) {
	ctx := context.Background()
	venues := newVenueRepo()
	for n := 1; n <= 99; n++ {
		require.NoError(t, venues.Create(ctx, &models.Venue{Code: fmt.Sprintf("%02d", n), Name: "v"}))
	}

	g := NewCodeGenerator(venues)
	g.attempts = 5

	_, err := g.Next(ctx)
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

// racingVenues lets another registration claim the drawn code right before
// the first few Create calls.
type racingVenues struct {
	repositories.VenueRepository
	races int
	calls int
}

func (r *racingVenues) Create(ctx context.Context, venue *models.Venue) error {
	r.calls++
	if r.calls <= r.races {
		if err := r.VenueRepository.Create(ctx, &models.Venue{Code: venue.Code, Name: "Rival"}); err != nil {
			return err
		}
	}
	return r.VenueRepository.Create(ctx, venue)
}

func TestRegisterRedrawsOnConflict(t *testing.T) {
	ctx := context.Background()
	venues := &racingVenues{VenueRepository: newVenueRepo(), races: 1}

	draws := []int{36, 41}
	g := NewCodeGenerator(venues)
	g.intn = func(int) int {
		n := draws[0]
		draws = draws[1:]
		return n
	}

	venue := &models.Venue{Name: "Cafe"}
	code, err := g.Register(ctx, venue)
	require.NoError(t, err)
	assert.Equal(t, "42", code)
	assert.Equal(t, "42", venue.Code)
	assert.Equal(t, 2, venues.calls)

	rival, err := venues.Get(ctx, "37")
	require.NoError(t, err)
	assert.Equal(t, "Rival", rival.Name)

	stored, err := venues.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "Cafe", stored.Name)
}

func TestRegisterGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	venues := &racingVenues{VenueRepository: newVenueRepo(), races: 100}

	n := 0
	g := NewCodeGenerator(venues)
	g.retries = 3
	g.intn = func(int) int {
		n++
		return n
	}

	venue := &models.Venue{Name: "Cafe"}
	_, err := g.Register(ctx, venue)
	assert.ErrorIs(t, err, ErrCodeContended)
	assert.Empty(t, venue.Code)
	assert.Equal(t, 3, venues.calls)
}

func TestRegisterSurfacesStorageErrors(t *testing.T) {
	ctx := context.Background()
	backend := database.NewMemoryBackend()
	require.NoError(t, backend.Write(ctx, database.CollectionStores, []byte("[broken")))
	c := clock.NewManual(time.Date(2024, 1, 5, 12, 0, 0, 0, clock.KST))
	g := NewCodeGenerator(repositories.NewVenueRepository(database.NewStore(backend, nil), c))

	_, err := g.Register(ctx, &models.Venue{Name: "Cafe"})
	assert.ErrorIs(t, err, database.ErrStorage)
	assert.NotErrorIs(t, err, ErrCodeContended)
}
