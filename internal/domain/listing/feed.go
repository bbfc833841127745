package listing

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/infrastructure/metrics"
	"github.com/foodbridge/client-core/internal/utils/clienterrors"
)

// Fetcher retrieves listings from the backend.
type Fetcher interface {
	ListListings(ctx context.Context, category Category) ([]Listing, error)
}

// Withdrawer removes a listing from the backend.
type Withdrawer interface {
	DeleteListing(ctx context.Context, id string) error
}

// Feed keeps a periodically refreshed snapshot of the raw listing collection.
// Filtering and sorting stay in the pure Filter/Sort functions so they can run
// on every criteria change without touching the snapshot.
type Feed struct {
	fetcher    Fetcher
	withdrawer Withdrawer
	selfID     string
	interval   time.Duration
	log        zerolog.Logger

	mu          sync.RWMutex
	listings    []Listing
	refreshedAt time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewFeed creates a listing feed for the given user, refreshing at roughly the
// given interval.
func NewFeed(fetcher Fetcher, withdrawer Withdrawer, selfID string, interval time.Duration, log zerolog.Logger) *Feed {
	return &Feed{
		fetcher:    fetcher,
		withdrawer: withdrawer,
		selfID:     selfID,
		interval:   interval,
		log:        log.With().Str("component", "listing-feed").Logger(),
		done:       make(chan struct{}),
	}
}

// Start begins the refresh loop in background. Safe to call multiple times -
// only the first call starts the loop. An immediate refresh runs before the
// first tick so consumers never wait a full interval for data.
func (f *Feed) Start(ctx context.Context) {
	f.startOnce.Do(func() {
		f.wg.Add(1)
		go f.run(ctx)
		f.log.Info().Dur("interval", f.interval).Msg("listing feed started")
	})
}

// Stop halts the refresh loop. Safe to call multiple times.
func (f *Feed) Stop() {
	f.stopOnce.Do(func() {
		close(f.done)
		f.wg.Wait()
		f.log.Info().Msg("listing feed stopped")
	})
}

func (f *Feed) run(ctx context.Context) {
	defer f.wg.Done()

	if err := f.RefreshNow(ctx); err != nil {
		f.log.Warn().Err(err).Msg("initial feed refresh failed")
	}

	timer := time.NewTimer(f.jittered())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case <-timer.C:
			if err := f.RefreshNow(ctx); err != nil {
				f.log.Warn().Err(err).Msg("feed refresh failed, keeping previous snapshot")
			}
			timer.Reset(f.jittered())
		}
	}
}

// jittered spreads refreshes across clients instead of synchronizing them on
// the configured interval: interval plus or minus up to 10 percent.
func (f *Feed) jittered() time.Duration {
	spread := int64(f.interval) / 5
	if spread <= 0 {
		return f.interval
	}
	return f.interval - f.interval/10 + time.Duration(rand.Int64N(spread))
}

// RefreshNow fetches the listing collection immediately. On failure the
// previous snapshot is kept.
func (f *Feed) RefreshNow(ctx context.Context) error {
	listings, err := f.fetcher.ListListings(ctx, "")
	if err != nil {
		metrics.FeedRefreshErrors.Inc()
		return err
	}

	f.mu.Lock()
	f.listings = listings
	f.refreshedAt = time.Now()
	f.mu.Unlock()

	metrics.FeedListings.Set(float64(len(listings)))
	f.log.Debug().Int("listings", len(listings)).Msg("feed refreshed")
	return nil
}

// Snapshot returns a copy of the current listing collection.
func (f *Feed) Snapshot() []Listing {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Listing, len(f.listings))
	copy(out, f.listings)
	return out
}

// Withdraw deletes one of the current user's listings and refreshes the
// snapshot so it disappears immediately. Listings owned by someone else are
// rejected locally, without a network call.
func (f *Feed) Withdraw(ctx context.Context, listingID string) error {
	f.mu.RLock()
	var owner string
	found := false
	for i := range f.listings {
		if f.listings[i].ID == listingID {
			owner = f.listings[i].OwnerID
			found = true
			break
		}
	}
	f.mu.RUnlock()

	if found && owner != f.selfID {
		return clienterrors.Newf(clienterrors.KindUnauthorized, "listing %s is not owned by the current user", listingID)
	}

	if err := f.withdrawer.DeleteListing(ctx, listingID); err != nil {
		if clienterrors.KindOf(err) != "" {
			return err
		}
		return clienterrors.Wrap(clienterrors.KindNetworkFailure, "withdraw listing", err)
	}

	f.log.Info().Str("listing_id", listingID).Msg("listing withdrawn")
	if err := f.RefreshNow(ctx); err != nil {
		f.log.Warn().Err(err).Msg("post-withdraw refresh failed")
	}
	return nil
}

// RefreshedAt returns the time of the last successful refresh.
func (f *Feed) RefreshedAt() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.refreshedAt
}
