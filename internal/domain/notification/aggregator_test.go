package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodbridge/client-core/internal/domain/notification"
)

type fakeLedger struct {
	mu         sync.Mutex
	pending    int
	refreshErr error
	refreshes  int
}

func (f *fakeLedger) Refresh(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func (f *fakeLedger) PendingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

type fakeConversations struct {
	active int
}

func (f *fakeConversations) ActiveCount() int { return f.active }

func TestAggregator_TickComputesBadge(t *testing.T) {
	ledger := &fakeLedger{pending: 2}
	convs := &fakeConversations{active: 3}
	agg := notification.NewAggregator(ledger, convs, time.Hour, zerolog.Nop())

	agg.Tick(context.Background())

	got := agg.Current()
	assert.Equal(t, 2, got.PendingRequests)
	assert.Equal(t, 3, got.ActiveConversations)
	assert.Equal(t, 5, got.Total())
	assert.False(t, got.ComputedAt.IsZero())
}

func TestAggregator_FailedTickKeepsPreviousBadge(t *testing.T) {
	ledger := &fakeLedger{pending: 2}
	convs := &fakeConversations{active: 1}
	agg := notification.NewAggregator(ledger, convs, time.Hour, zerolog.Nop())

	agg.Tick(context.Background())
	require.Equal(t, 3, agg.Current().Total())

	ledger.mu.Lock()
	ledger.refreshErr = errors.New("backend down")
	ledger.pending = 99
	ledger.mu.Unlock()

	agg.Tick(context.Background())
	assert.Equal(t, 3, agg.Current().Total(), "a stale badge beats a crashed badge")
}

func TestAggregator_RunsOnOwnTimer(t *testing.T) {
	ledger := &fakeLedger{pending: 1}
	agg := notification.NewAggregator(ledger, &fakeConversations{}, 10*time.Millisecond, zerolog.Nop())

	agg.Start(context.Background())
	require.Eventually(t, func() bool {
		ledger.mu.Lock()
		defer ledger.mu.Unlock()
		return ledger.refreshes >= 2
	}, time.Second, 5*time.Millisecond)

	agg.Stop()
	agg.Stop() // idempotent

	ledger.mu.Lock()
	settled := ledger.refreshes
	ledger.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	ledger.mu.Lock()
	assert.Equal(t, settled, ledger.refreshes, "no ticks after Stop")
	ledger.mu.Unlock()
}
