package store_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodbridge/client-core/internal/domain/conversation"
	"github.com/foodbridge/client-core/internal/infrastructure/store"
)

func TestConversationCache_PutGet(t *testing.T) {
	cache := store.NewConversationCache(zerolog.Nop())

	_, ok := cache.Get("listing_1")
	require.False(t, ok)

	cache.Put("listing_1", &conversation.Conversation{ID: "conv_1"})
	conv, ok := cache.Get("listing_1")
	require.True(t, ok)
	assert.Equal(t, "conv_1", conv.ID)
}

func TestConversationCache_MergeRefreshKeepsMissingEntries(t *testing.T) {
	cache := store.NewConversationCache(zerolog.Nop())
	cache.Put("listing_old", &conversation.Conversation{ID: "conv_old"})

	cache.MergeRefresh(map[string]*conversation.Conversation{
		"listing_new": {ID: "conv_new"},
	})

	_, ok := cache.Get("listing_old")
	assert.True(t, ok, "a conversation once learned is never forgotten by a partial refresh")
	_, ok = cache.Get("listing_new")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestConversationCache_MergeRefreshLastWriterWins(t *testing.T) {
	cache := store.NewConversationCache(zerolog.Nop())
	cache.Put("listing_1", &conversation.Conversation{ID: "conv_stale"})

	cache.MergeRefresh(map[string]*conversation.Conversation{
		"listing_1": {ID: "conv_fresh"},
	})

	conv, ok := cache.Get("listing_1")
	require.True(t, ok)
	assert.Equal(t, "conv_fresh", conv.ID)
}

func TestConversationCache_ActiveCount(t *testing.T) {
	cache := store.NewConversationCache(zerolog.Nop())
	cache.Put("listing_1", &conversation.Conversation{ID: "conv_1", LastActivityAt: time.Now()})
	cache.Put("listing_2", &conversation.Conversation{ID: "conv_2"})

	assert.Equal(t, 1, cache.ActiveCount())
}

func TestConversationCache_IgnoresEmptyKeysAndNils(t *testing.T) {
	cache := store.NewConversationCache(zerolog.Nop())
	cache.Put("", &conversation.Conversation{ID: "conv_1"})
	cache.Put("listing_1", nil)
	assert.Equal(t, 0, cache.Len())
}
