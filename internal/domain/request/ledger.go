package request

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/domain/conversation"
	"github.com/foodbridge/client-core/internal/infrastructure/store"
	"github.com/foodbridge/client-core/internal/utils/clienterrors"
)

// Backend is the slice of the API contract the ledger needs.
type Backend interface {
	ListMyRequests(ctx context.Context) ([]Request, error)
	CreateRequest(ctx context.Context, listingID, message string) (*SubmitResult, error)
	ListListingRequests(ctx context.Context, listingID string) ([]Request, error)
	AcceptRequest(ctx context.Context, requestID string) error
	DeclineRequest(ctx context.Context, requestID string) error
}

// Ledger tracks, per listing, whether the current user has an outstanding or
// accepted request, and guards against duplicate submissions before any
// network call is made. Conversation handles learned from submissions and
// refreshes are fed to the shared conversation cache.
type Ledger struct {
	backend Backend
	cache   *store.ConversationCache
	selfID  string
	log     zerolog.Logger

	mu sync.RWMutex
	// statusByListing is the current user's requester-side state.
	statusByListing map[string]Status
	// seen holds requests the ledger has observed, by request ID. Owner-side
	// accept/decline validates pending-only transitions against it.
	seen map[string]*Request
	// inFlight marks listings with a submission on the wire, so a concurrent
	// duplicate is rejected before the first response lands.
	inFlight map[string]struct{}
}

// NewLedger creates a request ledger for the given user.
func NewLedger(backend Backend, cache *store.ConversationCache, selfID string, log zerolog.Logger) *Ledger {
	return &Ledger{
		backend:         backend,
		cache:           cache,
		selfID:          selfID,
		log:             log.With().Str("component", "request-ledger").Logger(),
		statusByListing: make(map[string]Status),
		seen:            make(map[string]*Request),
		inFlight:        make(map[string]struct{}),
	}
}

// Refresh rebuilds the per-listing status map from the user's full request
// history and merges any known conversations into the cache. Statuses are
// replaced wholesale; conversations are merged, never dropped.
func (l *Ledger) Refresh(ctx context.Context) error {
	requests, err := l.backend.ListMyRequests(ctx)
	if err != nil {
		return clienterrors.Wrap(clienterrors.KindNetworkFailure, "list my requests", err)
	}

	statuses := make(map[string]Status, len(requests))
	conversations := make(map[string]*conversation.Conversation)
	for i := range requests {
		r := &requests[i]
		statuses[r.ListingID] = r.Status
		if r.Conversation != nil {
			conversations[r.ListingID] = r.Conversation
		}
	}

	l.mu.Lock()
	l.statusByListing = statuses
	for i := range requests {
		l.seen[requests[i].ID] = &requests[i]
	}
	l.mu.Unlock()

	l.cache.MergeRefresh(conversations)
	l.log.Debug().Int("requests", len(requests)).Msg("request ledger refreshed")
	return nil
}

// StatusFor returns the current user's request status for a listing.
func (l *Ledger) StatusFor(listingID string) Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if s, ok := l.statusByListing[listingID]; ok {
		return s
	}
	return StatusNone
}

// ConversationFor returns the conversation known for a listing, if any.
func (l *Ledger) ConversationFor(listingID string) (*conversation.Conversation, bool) {
	return l.cache.Get(listingID)
}

// SubmitRequest submits a request against a listing. When the local state is
// anything but none the submission fails with AlreadyRequested and no network
// call is issued. On success the local state moves to pending and any
// conversation handle returned by the backend is recorded in the cache. On
// failure local state is left unchanged; the caller retries the whole
// submission.
func (l *Ledger) SubmitRequest(ctx context.Context, listingID, message string) (*Request, error) {
	l.mu.Lock()
	if s, ok := l.statusByListing[listingID]; ok && s != StatusNone {
		l.mu.Unlock()
		return nil, clienterrors.Newf(clienterrors.KindAlreadyRequested, "listing %s already requested (status %s)", listingID, s)
	}
	if _, busy := l.inFlight[listingID]; busy {
		l.mu.Unlock()
		return nil, clienterrors.Newf(clienterrors.KindAlreadyRequested, "listing %s has a submission in flight", listingID)
	}
	l.inFlight[listingID] = struct{}{}
	l.mu.Unlock()

	result, err := l.backend.CreateRequest(ctx, listingID, message)
	if err != nil {
		// Clearing the marker keeps the whole submission retryable.
		l.mu.Lock()
		delete(l.inFlight, listingID)
		l.mu.Unlock()
		if clienterrors.KindOf(err) == clienterrors.KindAlreadyRequested || clienterrors.KindOf(err) == clienterrors.KindUnauthorized {
			return nil, err
		}
		return nil, clienterrors.Wrap(clienterrors.KindRequestFailed, "submit request", err)
	}

	l.mu.Lock()
	delete(l.inFlight, listingID)
	l.statusByListing[listingID] = StatusPending
	if result.Request != nil {
		l.seen[result.Request.ID] = result.Request
	}
	l.mu.Unlock()

	if result.Conversation != nil {
		l.cache.Put(listingID, result.Conversation)
	}

	l.log.Info().Str("listing_id", listingID).Msg("request submitted")
	return result.Request, nil
}

// RequestsForListing returns all requests against one of the current user's
// listings, in submission order. Owner-side view driving the accept/decline
// decision.
func (l *Ledger) RequestsForListing(ctx context.Context, listingID string) ([]Request, error) {
	requests, err := l.backend.ListListingRequests(ctx, listingID)
	if err != nil {
		return nil, clienterrors.Wrap(clienterrors.KindNetworkFailure, "list listing requests", err)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	l.mu.Lock()
	for i := range requests {
		l.seen[requests[i].ID] = &requests[i]
	}
	l.mu.Unlock()
	return requests, nil
}

// AcceptRequest transitions a pending request to accepted. Valid only for
// requests the ledger has observed in the pending state; accepting an
// already-decided request is rejected locally.
func (l *Ledger) AcceptRequest(ctx context.Context, requestID string) error {
	return l.decide(ctx, requestID, StatusAccepted, l.backend.AcceptRequest)
}

// DeclineRequest transitions a pending request to declined. Terminal, like
// accept.
func (l *Ledger) DeclineRequest(ctx context.Context, requestID string) error {
	return l.decide(ctx, requestID, StatusDeclined, l.backend.DeclineRequest)
}

func (l *Ledger) decide(ctx context.Context, requestID string, next Status, call func(context.Context, string) error) error {
	l.mu.RLock()
	r, ok := l.seen[requestID]
	l.mu.RUnlock()
	if !ok {
		return clienterrors.Newf(clienterrors.KindRequestFailed, "unknown request %s", requestID)
	}
	if r.Status != StatusPending {
		return clienterrors.Newf(clienterrors.KindRequestFailed, "request %s is %s, not pending", requestID, r.Status)
	}

	if err := call(ctx, requestID); err != nil {
		if clienterrors.KindOf(err) != "" {
			return err
		}
		return clienterrors.Wrap(clienterrors.KindRequestFailed, "decide request", err)
	}

	l.mu.Lock()
	r.Status = next
	l.mu.Unlock()

	l.log.Info().Str("request_id", requestID).Str("status", string(next)).Msg("request decided")
	return nil
}

// PendingCount returns the number of the current user's submitted requests
// still awaiting a decision. Feeds the notification badge.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, s := range l.statusByListing {
		if s == StatusPending {
			n++
		}
	}
	return n
}
