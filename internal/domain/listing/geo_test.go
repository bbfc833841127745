package listing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodbridge/client-core/internal/domain/listing"
)

func coords(lat, lng float64) *listing.Coordinates {
	return &listing.Coordinates{Lat: lat, Lng: lng}
}

func TestDistance_Symmetric(t *testing.T) {
	tests := []struct {
		name string
		a, b listing.Coordinates
	}{
		{"dhaka pair", listing.Coordinates{Lat: 23.81, Lng: 90.41}, listing.Coordinates{Lat: 23.83, Lng: 90.40}},
		{"equator crossing", listing.Coordinates{Lat: -1.5, Lng: 36.8}, listing.Coordinates{Lat: 1.2, Lng: 36.9}},
		{"antimeridian", listing.Coordinates{Lat: 52.0, Lng: 179.9}, listing.Coordinates{Lat: 52.0, Lng: -179.9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, listing.Distance(tt.a, tt.b), listing.Distance(tt.b, tt.a), 1e-9)
		})
	}
}

func TestDistance_ZeroForSamePoint(t *testing.T) {
	p := listing.Coordinates{Lat: 23.81, Lng: 90.41}
	assert.InDelta(t, 0, listing.Distance(p, p), 1e-9)
}

func TestDistance_KnownMagnitudes(t *testing.T) {
	origin := listing.Coordinates{Lat: 23.81, Lng: 90.41}

	near := listing.Distance(origin, listing.Coordinates{Lat: 23.83, Lng: 90.40})
	assert.Greater(t, near, 2.0)
	assert.Less(t, near, 3.0)

	far := listing.Distance(origin, listing.Coordinates{Lat: 23.90, Lng: 90.50})
	assert.Greater(t, far, 10.0)
}

func TestFilter_MaxDistance(t *testing.T) {
	origin := coords(23.81, 90.41)
	listings := []listing.Listing{
		{ID: "near", Coordinates: coords(23.83, 90.40)},
		{ID: "far", Coordinates: coords(23.90, 90.50)},
		{ID: "unlocated"},
	}

	got := listing.Filter(listings, listing.Criteria{Origin: origin, MaxDistanceKm: 5})

	ids := make([]string, 0, len(got))
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	// A listing without coordinates is never excluded by distance alone.
	assert.Equal(t, []string{"near", "unlocated"}, ids)

	for _, l := range got {
		if l.Coordinates != nil {
			assert.LessOrEqual(t, listing.Distance(*origin, *l.Coordinates), 5.0)
		}
	}
}

func TestFilter_NoOriginSkipsDistance(t *testing.T) {
	listings := []listing.Listing{
		{ID: "a", Coordinates: coords(0, 0)},
		{ID: "b", Coordinates: coords(80, 170)},
	}
	got := listing.Filter(listings, listing.Criteria{MaxDistanceKm: 1})
	assert.Len(t, got, 2)
}

func TestFilter_Category(t *testing.T) {
	listings := []listing.Listing{
		{ID: "a", Category: listing.CategoryHuman},
		{ID: "b", Category: listing.CategoryAnimal},
	}

	got := listing.Filter(listings, listing.Criteria{Category: listing.CategoryAnimal})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	assert.Len(t, listing.Filter(listings, listing.Criteria{}), 2)
}

func TestFilter_AvailabilityWindow(t *testing.T) {
	day := 24 * time.Hour
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	listings := []listing.Listing{
		{ID: "expired", AvailableFrom: now.Add(-3 * day), ExpiresAt: now.Add(-1 * day)},
		{ID: "current", AvailableFrom: now.Add(-1 * day), ExpiresAt: now.Add(1 * day)},
		{ID: "future", AvailableFrom: now.Add(2 * day), ExpiresAt: now.Add(4 * day)},
	}

	got := listing.Filter(listings, listing.Criteria{AvailableFrom: now, AvailableUntil: now.Add(day)})
	require.Len(t, got, 1)
	assert.Equal(t, "current", got[0].ID)
}

func TestSort_DistanceAscendingMonotone(t *testing.T) {
	origin := coords(23.81, 90.41)
	listings := []listing.Listing{
		{ID: "far", Coordinates: coords(23.90, 90.50)},
		{ID: "near", Coordinates: coords(23.83, 90.40)},
		{ID: "unlocated"},
		{ID: "mid", Coordinates: coords(23.86, 90.43)},
	}

	got := listing.Sort(listings, listing.SortByDistance, listing.Ascending, origin)
	require.Len(t, got, 4)

	prev := -1.0
	for _, l := range got[:3] {
		d := listing.Distance(*origin, *l.Coordinates)
		assert.GreaterOrEqual(t, d, prev)
		prev = d
	}
	// Unlocated listings sort after every located one.
	assert.Equal(t, "unlocated", got[3].ID)
}

func TestSort_DistanceDescendingPutsUnlocatedFirst(t *testing.T) {
	origin := coords(23.81, 90.41)
	listings := []listing.Listing{
		{ID: "near", Coordinates: coords(23.83, 90.40)},
		{ID: "unlocated"},
		{ID: "far", Coordinates: coords(23.90, 90.50)},
	}

	got := listing.Sort(listings, listing.SortByDistance, listing.Descending, origin)
	require.Len(t, got, 3)

	// Infinite distance reverses with the direction.
	assert.Equal(t, "unlocated", got[0].ID)
	assert.Equal(t, "far", got[1].ID)
	assert.Equal(t, "near", got[2].ID)
}

func TestSort_DistanceWithoutOriginKeepsOrder(t *testing.T) {
	listings := []listing.Listing{
		{ID: "b", Coordinates: coords(23.90, 90.50)},
		{ID: "a", Coordinates: coords(23.83, 90.40)},
	}
	got := listing.Sort(listings, listing.SortByDistance, listing.Ascending, nil)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSort_StableOnTies(t *testing.T) {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	listings := []listing.Listing{
		{ID: "first", CreatedAt: created},
		{ID: "second", CreatedAt: created},
		{ID: "third", CreatedAt: created},
	}
	got := listing.Sort(listings, listing.SortByRecency, listing.Ascending, nil)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestSort_TitleAndDirection(t *testing.T) {
	listings := []listing.Listing{
		{ID: "1", Title: "bread"},
		{ID: "2", Title: "Apples"},
		{ID: "3", Title: "carrots"},
	}

	asc := listing.Sort(listings, listing.SortByTitle, listing.Ascending, nil)
	assert.Equal(t, "Apples", asc[0].Title)
	assert.Equal(t, "carrots", asc[2].Title)

	desc := listing.Sort(listings, listing.SortByTitle, listing.Descending, nil)
	assert.Equal(t, "carrots", desc[0].Title)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	listings := []listing.Listing{
		{ID: "z", Title: "z"},
		{ID: "a", Title: "a"},
	}
	_ = listing.Sort(listings, listing.SortByTitle, listing.Ascending, nil)
	assert.Equal(t, "z", listings[0].ID)
}
