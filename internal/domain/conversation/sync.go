package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/foodbridge/client-core/internal/infrastructure/metrics"
	"github.com/foodbridge/client-core/internal/utils/clienterrors"
)

// MessageFetcher retrieves the full message log of a conversation.
type MessageFetcher interface {
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// Sender writes a message to a conversation.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, content string) (*Message, error)
}

// Subscription is an established push channel for one conversation. Events
// delivers incoming messages until the channel is closed; Close releases the
// underlying resource and is idempotent.
type Subscription interface {
	Events() <-chan Message
	Close() error
}

// Subscriber establishes push subscriptions. A nil Subscriber means the push
// capability is not configured and sync goes straight to polling.
type Subscriber interface {
	Subscribe(ctx context.Context, conversationID string) (Subscription, error)
}

// SyncState is the lifecycle state of a sync session.
type SyncState string

const (
	// StateIdle is the state before the initial fetch completes.
	StateIdle SyncState = "idle"
	// StateSubscribing covers the initial fetch and the push attempt.
	StateSubscribing SyncState = "subscribing"
	// StateLive means pushed messages are flowing into the log.
	StateLive SyncState = "live"
	// StatePolling means the log is refetched on a fixed interval.
	StatePolling SyncState = "polling"
	// StateClosed means the session released its resource.
	StateClosed SyncState = "closed"
)

// SyncConfig tunes a sync session.
type SyncConfig struct {
	// PollInterval is the fallback polling cadence.
	PollInterval time.Duration
	// SubscribeTimeout bounds the push establishment attempt. The initial
	// fetch never waits on it.
	SubscribeTimeout time.Duration
	// DegradedAfter is the number of consecutive poll failures after which
	// the session reports itself degraded.
	DegradedAfter uint32
}

// DefaultSyncConfig returns the production sync settings.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval:     3 * time.Second,
		SubscribeTimeout: 5 * time.Second,
		DegradedAfter:    3,
	}
}

// SyncSession synchronizes the local message log of one open conversation.
// It prefers a push subscription scoped to the conversation's message stream
// and falls back to fixed-interval polling when the capability is missing or
// establishment fails. Close releases whichever resource is active; callers
// must Close the previous session before opening one for another
// conversation.
type SyncSession struct {
	conversationID string
	fetcher        MessageFetcher
	sender         Sender
	cfg            SyncConfig
	log            zerolog.Logger

	messages *Log
	breaker  *gobreaker.CircuitBreaker

	mu    sync.Mutex
	state SyncState
	sub   Subscription

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// OpenSync opens a sync session for a conversation: one full message fetch to
// populate the log, then a bounded push attempt with polling as the fallback.
// A nil subscriber skips the attempt entirely. On error no resource is left
// behind and the caller may retry.
func OpenSync(ctx context.Context, conversationID string, fetcher MessageFetcher, sender Sender, subscriber Subscriber, cfg SyncConfig, log zerolog.Logger) (*SyncSession, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.SubscribeTimeout <= 0 {
		cfg.SubscribeTimeout = 5 * time.Second
	}
	if cfg.DegradedAfter == 0 {
		cfg.DegradedAfter = 3
	}

	s := &SyncSession{
		conversationID: conversationID,
		fetcher:        fetcher,
		sender:         sender,
		cfg:            cfg,
		log: log.With().
			Str("component", "conversation-sync").
			Str("conversation_id", conversationID).
			Logger(),
		messages: NewLog(),
		state:    StateIdle,
		done:     make(chan struct{}),
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "message-poll-" + conversationID,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.DegradedAfter
		},
	})

	s.setState(StateSubscribing)

	initial, err := fetcher.ListMessages(ctx, conversationID)
	if err != nil {
		s.setState(StateClosed)
		if clienterrors.KindOf(err) != "" {
			return nil, err
		}
		return nil, clienterrors.Wrap(clienterrors.KindNetworkFailure, "initial message fetch", err)
	}
	s.messages.Replace(initial)

	if subscriber == nil {
		s.log.Debug().Msg("push capability not configured, polling")
		s.startPolling()
		return s, nil
	}

	sub, err := s.establish(ctx, subscriber)
	if err != nil {
		s.log.Info().Err(err).Msg("push subscription unavailable, falling back to polling")
		s.startPolling()
		return s, nil
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()
	s.setState(StateLive)

	s.wg.Add(1)
	go s.consumePush(sub)
	return s, nil
}

// establish attempts the push subscription within the configured deadline,
// retrying with exponential backoff while time remains.
func (s *SyncSession) establish(ctx context.Context, subscriber Subscriber) (Subscription, error) {
	subCtx, cancel := context.WithTimeout(ctx, s.cfg.SubscribeTimeout)
	defer cancel()

	var sub Subscription
	attempt := func() error {
		var err error
		sub, err = subscriber.Subscribe(subCtx, s.conversationID)
		return err
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), subCtx)
	if err := backoff.Retry(attempt, bo); err != nil {
		return nil, clienterrors.Wrap(clienterrors.KindSubscriptionUnavailable, "establish push subscription", err)
	}
	return sub, nil
}

// consumePush appends pushed messages until the event channel closes. A
// server-side drop while the session is still open degrades to polling so the
// log keeps advancing.
func (s *SyncSession) consumePush(sub Subscription) {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case m, ok := <-sub.Events():
			if !ok {
				select {
				case <-s.done:
					return
				default:
				}
				s.log.Warn().Msg("push channel closed, falling back to polling")
				s.mu.Lock()
				s.sub = nil
				s.mu.Unlock()
				_ = sub.Close()
				s.startPolling()
				return
			}
			if s.messages.Append(m) > 0 {
				metrics.PushMessages.Inc()
			}
		}
	}
}

// startPolling transitions to the polling state and starts the ticker loop.
func (s *SyncSession) startPolling() {
	s.setState(StatePolling)
	metrics.PollingFallbacks.Inc()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.pollOnce()
			}
		}
	}()
}

// pollOnce refetches the full log, replacing the local copy. Failures feed
// the breaker; a tripped breaker is what Degraded reports.
func (s *SyncSession) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PollInterval)
	defer cancel()

	_, err := s.breaker.Execute(func() (any, error) {
		msgs, err := s.fetcher.ListMessages(ctx, s.conversationID)
		if err != nil {
			return nil, err
		}
		s.messages.Replace(msgs)
		return nil, nil
	})
	if err != nil {
		metrics.PollFetchErrors.Inc()
		s.log.Warn().Err(err).Msg("poll fetch failed")
	}
}

// Send writes a message synchronously, outside the sync state machine. There
// is no optimistic echo: the message is appended only after the backend
// returns it, and the append deduplicates against a copy that may already
// have arrived via push or poll.
func (s *SyncSession) Send(ctx context.Context, content string) (*Message, error) {
	msg, err := s.sender.SendMessage(ctx, s.conversationID, content)
	if err != nil {
		return nil, clienterrors.Wrap(clienterrors.KindSendFailed, "send message", err)
	}
	s.messages.Append(*msg)
	return msg, nil
}

// Messages returns the current log in creation-timestamp order.
func (s *SyncSession) Messages() []Message {
	return s.messages.Messages()
}

// State returns the session state.
func (s *SyncSession) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded reports whether repeated poll failures have tripped the breaker.
// A degraded session still shows the last good log; the caller decides how to
// surface staleness.
func (s *SyncSession) Degraded() bool {
	return s.breaker.State() != gobreaker.StateClosed
}

// Close releases the active resource - the subscription when live, the poll
// ticker when polling - exactly once. Safe to call multiple times and from
// any exit path.
func (s *SyncSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		sub := s.sub
		s.sub = nil
		s.mu.Unlock()

		if sub != nil {
			if err := sub.Close(); err != nil {
				s.log.Warn().Err(err).Msg("failed to close push subscription")
			}
		}

		s.wg.Wait()
		s.setState(StateClosed)
		s.log.Debug().Msg("sync session closed")
	})
}

func (s *SyncSession) setState(next SyncState) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()

	if prev != next {
		metrics.RecordSyncTransition(string(prev), string(next))
	}
}
