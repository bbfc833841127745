package listing

import (
	"math"
	"sort"
	"strings"
	"time"
)

// earthRadiusKm is the mean earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinates in
// kilometers. Symmetric; zero (within floating precision) for identical
// points.
func Distance(a, b Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Criteria narrows a listing collection. Zero values disable the
// corresponding filter.
type Criteria struct {
	// Category keeps only listings with this tag. Empty keeps all.
	Category Category
	// AvailableFrom keeps listings whose window has not expired before it.
	AvailableFrom time.Time
	// AvailableUntil keeps listings whose window opens before it.
	AvailableUntil time.Time
	// MaxDistanceKm keeps listings within this distance of Origin. Applied
	// only when positive and Origin is set; listings without coordinates are
	// never excluded by distance alone.
	MaxDistanceKm float64
	// Origin is the reference point for the distance filter and sort.
	Origin *Coordinates
}

// Filter returns the listings matching the criteria, preserving input order.
// The input slice is not modified.
func Filter(listings []Listing, c Criteria) []Listing {
	out := make([]Listing, 0, len(listings))
	for _, l := range listings {
		if c.Category != "" && l.Category != c.Category {
			continue
		}
		if !c.AvailableFrom.IsZero() && l.ExpiresAt.Before(c.AvailableFrom) {
			continue
		}
		if !c.AvailableUntil.IsZero() && l.AvailableFrom.After(c.AvailableUntil) {
			continue
		}
		if c.MaxDistanceKm > 0 && c.Origin != nil && l.Coordinates != nil {
			if Distance(*c.Origin, *l.Coordinates) > c.MaxDistanceKm {
				continue
			}
		}
		out = append(out, l)
	}
	return out
}

// SortKey selects the ordering of a listing feed.
type SortKey string

const (
	// SortByDistance orders by great-circle distance from the origin.
	SortByDistance SortKey = "distance"
	// SortByRecency orders by creation timestamp.
	SortByRecency SortKey = "recency"
	// SortByTitle orders lexicographically by title, case-insensitive.
	SortByTitle SortKey = "title"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	// Ascending sorts smallest (nearest, oldest, A) first.
	Ascending SortDirection = "asc"
	// Descending sorts largest first.
	Descending SortDirection = "desc"
)

// Sort returns a sorted copy of the listings. The sort is stable: ties keep
// input order. A distance sort without an origin treats all distances as
// equal, so the input order is preserved. Listings without coordinates carry
// an infinite distance: last in an ascending distance sort, first in a
// descending one.
func Sort(listings []Listing, key SortKey, dir SortDirection, origin *Coordinates) []Listing {
	out := make([]Listing, len(listings))
	copy(out, listings)

	var less func(a, b Listing) bool
	switch key {
	case SortByDistance:
		if origin == nil {
			return out
		}
		less = func(a, b Listing) bool {
			return distanceOrInf(origin, a) < distanceOrInf(origin, b)
		}
	case SortByRecency:
		less = func(a, b Listing) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	case SortByTitle:
		less = func(a, b Listing) bool {
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		}
	default:
		return out
	}

	if dir == Descending {
		inner := less
		less = func(a, b Listing) bool { return inner(b, a) }
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j])
	})
	return out
}

func distanceOrInf(origin *Coordinates, l Listing) float64 {
	if l.Coordinates == nil {
		return math.Inf(1)
	}
	return Distance(*origin, *l.Coordinates)
}
