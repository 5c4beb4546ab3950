package services

import (
	"context"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sahilm/fuzzy"

	"github.com/disgoorg/entry-bot/entrybot/database/models"
	"github.com/disgoorg/entry-bot/entrybot/database/repositories"
)

// MaxAutocompleteChoices is Discord's cap on autocomplete results.
const MaxAutocompleteChoices = 25

// venueItems implements fuzzy.Source over "code name" strings.
type venueItems []*models.Venue

func (items venueItems) Len() int {
	return len(items)
}

func (items venueItems) String(i int) string {
	return items[i].Code + " " + strings.ToLower(items[i].Name)
}

// VenueSearch matches venue codes and names for command autocomplete.
type VenueSearch struct {
	venues repositories.VenueRepository
}

func NewVenueSearch(venues repositories.VenueRepository) *VenueSearch {
	return &VenueSearch{venues: venues}
}

// Search returns up to limit venues matching query, best match first. A nil
// owner searches every venue; an empty query lists venues in code order.
func (s *VenueSearch) Search(ctx context.Context, query string, owner *snowflake.ID, limit int) ([]*models.Venue, error) {
	if limit <= 0 || limit > MaxAutocompleteChoices {
		limit = MaxAutocompleteChoices
	}

	var (
		list []*models.Venue
		err  error
	)
	if owner != nil {
		list, err = s.venues.ListByOwner(ctx, *owner)
	} else {
		list, err = s.venues.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if len(list) > limit {
			list = list[:limit]
		}
		return list, nil
	}

	items := venueItems(list)
	matches := fuzzy.FindFrom(query, items)

	results := make([]*models.Venue, 0, min(limit, len(matches)))
	for _, match := range matches {
		if len(results) == limit {
			break
		}
		results = append(results, items[match.Index])
	}
	return results, nil
}
