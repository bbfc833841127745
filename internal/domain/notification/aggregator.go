// Package notification derives UI badge counts from ledger and conversation
// state.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/infrastructure/metrics"
)

// Summary is one badge computation.
type Summary struct {
	// PendingRequests is the number of the user's submitted requests still
	// awaiting a decision.
	PendingRequests int
	// ActiveConversations is the number of known conversations with recorded
	// activity.
	ActiveConversations int
	// ComputedAt is when this summary was derived.
	ComputedAt time.Time
}

// Total returns the single badge number shown in the UI.
func (s Summary) Total() int {
	return s.PendingRequests + s.ActiveConversations
}

// LedgerSource is the ledger surface the aggregator reads.
type LedgerSource interface {
	Refresh(ctx context.Context) error
	PendingCount() int
}

// ConversationSource is the cache surface the aggregator reads.
type ConversationSource interface {
	ActiveCount() int
}

// Aggregator re-derives the badge on its own timer, independent of any open
// conversation. Tick failures are logged and swallowed: a stale badge beats a
// crashed notification surface, so the previous summary is simply kept.
type Aggregator struct {
	ledger        LedgerSource
	conversations ConversationSource
	interval      time.Duration
	log           zerolog.Logger

	mu      sync.RWMutex
	current Summary

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewAggregator creates a badge aggregator ticking at the given interval.
func NewAggregator(ledger LedgerSource, conversations ConversationSource, interval time.Duration, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		ledger:        ledger,
		conversations: conversations,
		interval:      interval,
		log:           log.With().Str("component", "notification-aggregator").Logger(),
		done:          make(chan struct{}),
	}
}

// Start begins the badge loop in background. Safe to call multiple times -
// only the first call starts the loop.
func (a *Aggregator) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		a.wg.Add(1)
		go a.run(ctx)
		a.log.Info().Dur("interval", a.interval).Msg("notification aggregator started")
	})
}

// Stop halts the badge loop. Safe to call multiple times.
func (a *Aggregator) Stop() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
		a.log.Info().Msg("notification aggregator stopped")
	})
}

func (a *Aggregator) run(ctx context.Context) {
	defer a.wg.Done()

	a.Tick(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case <-ticker.C:
			a.Tick(ctx)
		}
	}
}

// Tick refreshes the ledger and recomputes the badge. A refresh failure keeps
// the previous summary.
func (a *Aggregator) Tick(ctx context.Context) {
	if err := a.ledger.Refresh(ctx); err != nil {
		a.log.Warn().Err(err).Msg("badge refresh failed, keeping previous badge")
		return
	}

	summary := Summary{
		PendingRequests:     a.ledger.PendingCount(),
		ActiveConversations: a.conversations.ActiveCount(),
		ComputedAt:          time.Now(),
	}

	a.mu.Lock()
	a.current = summary
	a.mu.Unlock()

	metrics.BadgePending.Set(float64(summary.PendingRequests))
	metrics.BadgeConversations.Set(float64(summary.ActiveConversations))
	a.log.Debug().
		Int("pending", summary.PendingRequests).
		Int("active", summary.ActiveConversations).
		Msg("badge recomputed")
}

// Current returns the latest badge summary.
func (a *Aggregator) Current() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.current
}
