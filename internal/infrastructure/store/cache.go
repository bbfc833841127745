// Package store holds the process-local conversation cache.
package store

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/domain/conversation"
)

// ConversationCache maps listing IDs to the conversation known for that
// listing. It is populated from the user's own request history and read by
// the resolver and the notification aggregator. Refreshes merge rather than
// replace: a conversation once learned is never forgotten just because one
// refresh happened not to include it. Thread-safe via sync.RWMutex.
type ConversationCache struct {
	mu        sync.RWMutex
	byListing map[string]*conversation.Conversation
	log       zerolog.Logger
}

// NewConversationCache creates an empty cache.
func NewConversationCache(log zerolog.Logger) *ConversationCache {
	return &ConversationCache{
		byListing: make(map[string]*conversation.Conversation),
		log:       log.With().Str("component", "conversation-cache").Logger(),
	}
}

// Put records the conversation for a listing, overwriting any previous entry.
func (c *ConversationCache) Put(listingID string, conv *conversation.Conversation) {
	if listingID == "" || conv == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byListing[listingID] = conv
}

// Get returns the conversation known for a listing.
func (c *ConversationCache) Get(listingID string) (*conversation.Conversation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.byListing[listingID]
	return conv, ok
}

// MergeRefresh folds a freshly fetched listing→conversation mapping into the
// cache. Entries present in the refresh win (last-writer); entries only known
// locally are kept.
func (c *ConversationCache) MergeRefresh(entries map[string]*conversation.Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for listingID, conv := range entries {
		if listingID == "" || conv == nil {
			continue
		}
		c.byListing[listingID] = conv
	}
	c.log.Debug().Int("entries", len(entries)).Int("total", len(c.byListing)).Msg("cache refresh merged")
}

// ActiveCount returns the number of cached conversations with recorded
// activity. Feeds the notification badge.
func (c *ConversationCache) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, conv := range c.byListing {
		if !conv.LastActivityAt.IsZero() {
			n++
		}
	}
	return n
}

// Len returns the number of cached entries.
func (c *ConversationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byListing)
}
