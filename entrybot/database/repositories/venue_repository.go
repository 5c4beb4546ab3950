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

type VenueRepository interface {
	Create(ctx context.Context, venue *models.Venue) error
	Get(ctx context.Context, code string) (*models.Venue, error)
	Update(ctx context.Context, code string, patch models.VenuePatch) (*models.Venue, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]*models.Venue, error)
	ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]*models.Venue, error)
	Exists(ctx context.Context, code string) (bool, error)
	VenueNames(ctx context.Context) (map[string]string, error)
}

type venueRepository struct {
	mu    sync.Mutex
	store *database.Store
	clock clock.Clock
}

func NewVenueRepository(store *database.Store, c clock.Clock) VenueRepository {
	return &venueRepository{store: store, clock: c}
}

// load must be called with mu held.
func (r *venueRepository) load(ctx context.Context) (map[string]*models.Venue, error) {
	venues := make(map[string]*models.Venue)
	if err := r.store.Load(ctx, database.CollectionStores, &venues); err != nil {
		return nil, err
	}
	for code, v := range venues {
		if v == nil {
			delete(venues, code)
			continue
		}
		v.Code = code
	}
	return venues, nil
}

func (r *venueRepository) save(ctx context.Context, venues map[string]*models.Venue) error {
	return r.store.Save(ctx, database.CollectionStores, venues)
}

func (r *venueRepository) Create(ctx context.Context, venue *models.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := venues[venue.Code]; exists {
		return &ConflictError{Entity: "venue", Field: "code", Value: venue.Code}
	}
	if venue.CreatedAt.IsZero() {
		venue.CreatedAt = r.clock.Now()
	}

	stored := *venue
	venues[venue.Code] = &stored
	return r.save(ctx, venues)
}

func (r *venueRepository) Get(ctx context.Context, code string) (*models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	venue, ok := venues[code]
	if !ok {
		return nil, &NotFoundError{Entity: "venue", ID: code}
	}
	return venue, nil
}

func (r *venueRepository) Update(ctx context.Context, code string, patch models.VenuePatch) (*models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	venue, ok := venues[code]
	if !ok {
		return nil, &NotFoundError{Entity: "venue", ID: code}
	}

	patch.Apply(venue, r.clock.Now())
	if err := r.save(ctx, venues); err != nil {
		return nil, err
	}
	updated := *venue
	return &updated, nil
}

// Delete removes the venue only. Its visits stay in the ledger.
func (r *venueRepository) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := venues[code]; !ok {
		return &NotFoundError{Entity: "venue", ID: code}
	}
	delete(venues, code)
	return r.save(ctx, venues)
}

func (r *venueRepository) List(ctx context.Context) ([]*models.Venue, error) {
	return r.filter(ctx, func(*models.Venue) bool { return true })
}

func (r *venueRepository) ListByOwner(ctx context.Context, ownerID snowflake.ID) ([]*models.Venue, error) {
	return r.filter(ctx, func(v *models.Venue) bool { return v.OwnerID == ownerID })
}

func (r *venueRepository) filter(ctx context.Context, keep func(*models.Venue) bool) ([]*models.Venue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*models.Venue, 0, len(venues))
	for _, v := range venues {
		if keep(v) {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *venueRepository) Exists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := venues[code]
	return ok, nil
}

// VenueNames maps every registered code to its display name.
func (r *venueRepository) VenueNames(ctx context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	venues, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(venues))
	for code, v := range venues {
		names[code] = v.Name
	}
	return names, nil
}
