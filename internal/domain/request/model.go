package request

import (
	"time"

	"github.com/foodbridge/client-core/internal/domain/conversation"
)

// Status is the lifecycle state of a request. Transitions only move forward:
// pending→accepted or pending→declined, both terminal.
type Status string

const (
	// StatusNone means the current user has no request against the listing.
	// Local-only; the backend never returns it.
	StatusNone Status = "none"
	// StatusPending means the request awaits the owner's decision.
	StatusPending Status = "pending"
	// StatusAccepted means the owner accepted the request.
	StatusAccepted Status = "accepted"
	// StatusDeclined means the owner declined the request.
	StatusDeclined Status = "declined"
)

// Request is a requester's expression of interest in a listing. At most one
// request per (listing, requester) pair; the client-side guard in Ledger
// enforces this optimistically.
type Request struct {
	ID          string    `json:"id"`
	ListingID   string    `json:"listing_id"`
	RequesterID string    `json:"requester_id"`
	Message     string    `json:"message,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`

	// Conversation is the thread opened for this request, when the backend
	// knows it.
	Conversation *conversation.Conversation `json:"conversation,omitempty"`
}

// SubmitResult is what the backend returns for a request submission: the
// created request plus the conversation handle when the backend opened or
// found one.
type SubmitResult struct {
	Request      *Request                   `json:"request"`
	Conversation *conversation.Conversation `json:"conversation,omitempty"`
}
