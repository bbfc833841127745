package listing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodbridge/client-core/internal/domain/listing"
	"github.com/foodbridge/client-core/internal/utils/clienterrors"
)

type fakeFetcher struct {
	mu        sync.Mutex
	listings  []listing.Listing
	err       error
	calls     int
	deleted   []string
	deleteErr error
}

func (f *fakeFetcher) ListListings(ctx context.Context, category listing.Category) ([]listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeFetcher) DeleteListing(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeFetcher) set(listings []listing.Listing, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings = listings
	f.err = err
}

func TestFeed_RefreshNow(t *testing.T) {
	fetcher := &fakeFetcher{listings: []listing.Listing{{ID: "a"}, {ID: "b"}}}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", time.Hour, zerolog.Nop())

	require.NoError(t, feed.RefreshNow(context.Background()))
	assert.Len(t, feed.Snapshot(), 2)
	assert.False(t, feed.RefreshedAt().IsZero())
}

func TestFeed_KeepsSnapshotOnFailure(t *testing.T) {
	fetcher := &fakeFetcher{listings: []listing.Listing{{ID: "a"}}}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", time.Hour, zerolog.Nop())

	require.NoError(t, feed.RefreshNow(context.Background()))
	fetcher.set(nil, errors.New("backend down"))

	require.Error(t, feed.RefreshNow(context.Background()))
	assert.Len(t, feed.Snapshot(), 1, "failed refresh must keep the previous snapshot")
}

func TestFeed_StartStop(t *testing.T) {
	fetcher := &fakeFetcher{listings: []listing.Listing{{ID: "a"}}}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", 10*time.Millisecond, zerolog.Nop())

	feed.Start(context.Background())
	require.Eventually(t, func() bool {
		return len(feed.Snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	feed.Stop()
	feed.Stop() // idempotent

	fetcher.mu.Lock()
	after := fetcher.calls
	fetcher.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	fetcher.mu.Lock()
	assert.Equal(t, after, fetcher.calls, "no refreshes after Stop")
	fetcher.mu.Unlock()
}

func TestFeed_WithdrawOwnListing(t *testing.T) {
	fetcher := &fakeFetcher{listings: []listing.Listing{{ID: "a", OwnerID: "user_me"}}}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", time.Hour, zerolog.Nop())
	require.NoError(t, feed.RefreshNow(context.Background()))

	fetcher.set(nil, nil)
	require.NoError(t, feed.Withdraw(context.Background(), "a"))

	fetcher.mu.Lock()
	assert.Equal(t, []string{"a"}, fetcher.deleted)
	fetcher.mu.Unlock()
	assert.Empty(t, feed.Snapshot(), "withdraw must refresh the snapshot")
}

func TestFeed_WithdrawBackendKindSurfacesUnchanged(t *testing.T) {
	fetcher := &fakeFetcher{
		listings:  []listing.Listing{{ID: "a", OwnerID: "user_me"}},
		deleteErr: clienterrors.New(clienterrors.KindUnauthorized, "token expired"),
	}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", time.Hour, zerolog.Nop())
	require.NoError(t, feed.RefreshNow(context.Background()))

	err := feed.Withdraw(context.Background(), "a")
	require.Error(t, err)
	assert.Equal(t, clienterrors.KindUnauthorized, clienterrors.KindOf(err))
}

func TestFeed_WithdrawForeignListingRejectedLocally(t *testing.T) {
	fetcher := &fakeFetcher{listings: []listing.Listing{{ID: "a", OwnerID: "user_other"}}}
	feed := listing.NewFeed(fetcher, fetcher, "user_me", time.Hour, zerolog.Nop())
	require.NoError(t, feed.RefreshNow(context.Background()))

	err := feed.Withdraw(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, clienterrors.IsKind(err, clienterrors.KindUnauthorized))

	fetcher.mu.Lock()
	assert.Empty(t, fetcher.deleted, "no network call for a listing the user does not own")
	fetcher.mu.Unlock()
}
