package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/foodbridge/client-core/internal/utils/clienterrors"
)

// Backend is the slice of the API contract the resolver needs.
type Backend interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	CreateConversation(ctx context.Context, participantIDs []string, listingID string) (*Conversation, error)
}

// Resolver finds the conversation between the current user and a counterpart,
// creating it exactly once when absent. Matching keys on the participant pair
// only, not on the listing: one thread per relationship, whichever listing
// started it. Concurrent resolves for the same pair share a single lookup and
// at most one creation via a single-flight group.
type Resolver struct {
	backend  Backend
	selfID   string
	cacheTTL time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	cached    []Conversation
	fetchedAt time.Time

	group singleflight.Group
}

// NewResolver creates a resolver for the given user. cacheTTL bounds how long
// a fetched conversation set may be reused; one request-list refresh cycle is
// the intended value.
func NewResolver(backend Backend, selfID string, cacheTTL time.Duration, log zerolog.Logger) *Resolver {
	return &Resolver{
		backend:  backend,
		selfID:   selfID,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "conversation-resolver").Logger(),
	}
}

// Resolve returns the conversation between the current user and counterpartID,
// creating one with the given listing context when none exists. An existing
// conversation is returned untouched: its participant set and listing context
// are never mutated.
func (r *Resolver) Resolve(ctx context.Context, counterpartID, listingID string) (*Conversation, error) {
	key := PairKey(r.selfID, counterpartID)

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, counterpartID, listingID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conversation), nil
}

func (r *Resolver) resolve(ctx context.Context, counterpartID, listingID string) (*Conversation, error) {
	conversations, err := r.conversationSet(ctx)
	if err != nil {
		return nil, err
	}

	for i := range conversations {
		if conversations[i].HasParticipants(r.selfID, counterpartID) {
			return &conversations[i], nil
		}
	}

	created, err := r.backend.CreateConversation(ctx, []string{r.selfID, counterpartID}, listingID)
	if err != nil {
		if clienterrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, clienterrors.Wrap(clienterrors.KindNetworkFailure, "create conversation", err)
	}

	r.mu.Lock()
	r.cached = append(r.cached, *created)
	r.mu.Unlock()

	r.log.Info().
		Str("conversation_id", created.ID).
		Str("counterpart_id", counterpartID).
		Str("listing_id", listingID).
		Msg("conversation created")
	return created, nil
}

// conversationSet returns the cached conversation list when fresh enough,
// fetching otherwise.
func (r *Resolver) conversationSet(ctx context.Context) ([]Conversation, error) {
	r.mu.Lock()
	if r.cached != nil && time.Since(r.fetchedAt) < r.cacheTTL {
		cached := r.cached
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	conversations, err := r.backend.ListConversations(ctx)
	if err != nil {
		if clienterrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, clienterrors.Wrap(clienterrors.KindNetworkFailure, "list conversations", err)
	}

	r.mu.Lock()
	r.cached = conversations
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return conversations, nil
}

// Invalidate drops the cached conversation set so the next resolve refetches.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.cached = nil
	r.mu.Unlock()
}

// PairKey returns the canonical key for an unordered participant pair.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}
