package conversation

import "time"

// Conversation is a two-participant message thread, optionally anchored to a
// listing. The participant pair identifies it: for a given unordered pair at
// most one conversation should exist system-wide.
type Conversation struct {
	ID             string    `json:"id"`
	ListingID      string    `json:"listing_id,omitempty"`
	ParticipantIDs []string  `json:"participant_ids"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// HasParticipants reports whether the conversation is between exactly the two
// given users, in either order.
func (c *Conversation) HasParticipants(a, b string) bool {
	if len(c.ParticipantIDs) != 2 {
		return false
	}
	p0, p1 := c.ParticipantIDs[0], c.ParticipantIDs[1]
	return (p0 == a && p1 == b) || (p0 == b && p1 == a)
}

// Counterpart returns the other participant for the given user, or the empty
// string when the user is not a participant.
func (c *Conversation) Counterpart(selfID string) string {
	if len(c.ParticipantIDs) != 2 {
		return ""
	}
	switch selfID {
	case c.ParticipantIDs[0]:
		return c.ParticipantIDs[1]
	case c.ParticipantIDs[1]:
		return c.ParticipantIDs[0]
	}
	return ""
}

// Message is a single immutable entry in a conversation's log. Ordering is by
// creation timestamp ascending; the log is append-only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}
