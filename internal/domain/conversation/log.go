package conversation

import (
	"sort"
	"sync"
)

// Log is the local message log of one open conversation. It holds each
// message ID exactly once and keeps entries ordered by creation timestamp
// ascending, regardless of arrival order. Safe for concurrent use by the
// sync goroutine and readers.
type Log struct {
	mu   sync.RWMutex
	seen map[string]struct{}
	msgs []Message
}

// NewLog creates an empty message log.
func NewLog() *Log {
	return &Log{seen: make(map[string]struct{})}
}

// Append adds messages to the log, dropping any whose ID is already present.
// Returns the number of messages actually added.
func (l *Log) Append(msgs ...Message) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, m := range msgs {
		if _, dup := l.seen[m.ID]; dup {
			continue
		}
		l.seen[m.ID] = struct{}{}
		l.msgs = append(l.msgs, m)
		added++
	}
	if added > 0 {
		l.sortLocked()
	}
	return added
}

// Replace swaps the whole log for a freshly fetched one, re-deduplicating and
// re-sorting. Used by the polling path, which always refetches the full log.
func (l *Log) Replace(msgs []Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen = make(map[string]struct{}, len(msgs))
	l.msgs = l.msgs[:0]
	for _, m := range msgs {
		if _, dup := l.seen[m.ID]; dup {
			continue
		}
		l.seen[m.ID] = struct{}{}
		l.msgs = append(l.msgs, m)
	}
	l.sortLocked()
}

// Messages returns a copy of the log in creation-timestamp order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.msgs)
}

// sortLocked keeps ordering stable for equal timestamps, breaking the
// remaining ties by ID so the displayed order is deterministic.
func (l *Log) sortLocked() {
	sort.SliceStable(l.msgs, func(i, j int) bool {
		a, b := l.msgs[i], l.msgs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
