package listing

import "time"

// Category tags the intended use of a listing.
type Category string

const (
	// CategoryHuman marks food fit for human consumption.
	CategoryHuman Category = "human"
	// CategoryAnimal marks food fit for animal feed only.
	CategoryAnimal Category = "animal"
)

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Listing is a donor-published record of available surplus food.
// Owned by its creator; immutable once accepted requests exist, except for
// withdrawal (delete). Requesters never mutate a listing.
type Listing struct {
	ID                 string       `json:"id"`
	OwnerID            string       `json:"owner_id"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	Quantity           float64      `json:"quantity"`
	Unit               string       `json:"unit"`
	Category           Category     `json:"category"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
	PickupInstructions string       `json:"pickup_instructions,omitempty"`
	AvailableFrom      time.Time    `json:"available_from"`
	ExpiresAt          time.Time    `json:"expires_at"`
	CreatedAt          time.Time    `json:"created_at"`
}

// NewListingPayload is the client-side shape of a listing creation call.
// Validated before it goes on the wire.
type NewListingPayload struct {
	Title              string       `json:"title" validate:"required,max=140"`
	Description        string       `json:"description,omitempty" validate:"max=2000"`
	Quantity           float64      `json:"quantity" validate:"required,gt=0"`
	Unit               string       `json:"unit" validate:"required"`
	Category           Category     `json:"category" validate:"required,oneof=human animal"`
	Coordinates        *Coordinates `json:"coordinates,omitempty"`
	PickupInstructions string       `json:"pickup_instructions,omitempty"`
	AvailableFrom      time.Time    `json:"available_from" validate:"required"`
	ExpiresAt          time.Time    `json:"expires_at" validate:"required,gtfield=AvailableFrom"`
}
