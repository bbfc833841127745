// Package metrics provides Prometheus metrics for the client core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedListings tracks the number of listings in the current feed snapshot.
	FeedListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodbridge_feed_listings",
			Help: "Number of listings in the current feed snapshot",
		},
	)

	// FeedRefreshErrors counts failed feed refreshes.
	FeedRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodbridge_feed_refresh_errors_total",
			Help: "Total number of failed listing feed refreshes",
		},
	)

	// SyncStateTransitions tracks conversation sync state changes.
	SyncStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodbridge_sync_state_transitions_total",
			Help: "Total number of conversation sync state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	// PollingFallbacks counts sessions that fell back from push to polling.
	PollingFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodbridge_polling_fallbacks_total",
			Help: "Total number of conversation syncs that fell back to polling",
		},
	)

	// PushMessages counts messages delivered over the push channel.
	PushMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodbridge_push_messages_total",
			Help: "Total number of messages delivered via push subscription",
		},
	)

	// PollFetchErrors counts failed full message fetches while polling.
	PollFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foodbridge_poll_fetch_errors_total",
			Help: "Total number of failed message fetches during polling",
		},
	)

	// BadgePending tracks the pending-request part of the notification badge.
	BadgePending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodbridge_badge_pending_requests",
			Help: "Pending requests contributing to the notification badge",
		},
	)

	// BadgeConversations tracks the active-conversation part of the badge.
	BadgeConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "foodbridge_badge_active_conversations",
			Help: "Active conversations contributing to the notification badge",
		},
	)

	// APIErrors counts backend API failures by error kind.
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodbridge_api_errors_total",
			Help: "Total number of backend API call failures by kind",
		},
		[]string{"kind"},
	)
)

// RecordSyncTransition increments the sync state transition counter.
func RecordSyncTransition(from, to string) {
	SyncStateTransitions.WithLabelValues(from, to).Inc()
}

// RecordAPIError increments the API error counter for the given kind.
func RecordAPIError(kind string) {
	APIErrors.WithLabelValues(kind).Inc()
}
