package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/foodbridge/client-core/internal/domain/conversation"
)

// Frame types spoken on the realtime channel.
const (
	frameSubscribe  = "subscribe"
	frameSubscribed = "subscribed"
	frameMessage    = "message"
	framePing       = "ping"
	framePong       = "pong"
)

// frame is the wire envelope for the realtime channel.
type frame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ackTimeout bounds the wait for the subscribe acknowledgement once the
// socket is up. The caller's context bounds the dial.
const ackTimeout = 5 * time.Second

// Subscriber establishes websocket subscriptions to per-conversation message
// streams.
type Subscriber struct {
	endpoint string
	key      string
	dialer   *websocket.Dialer
	log      zerolog.Logger
}

// NewSubscriber creates a subscriber for the given realtime endpoint.
func NewSubscriber(endpoint, key string, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		endpoint: endpoint,
		key:      key,
		dialer:   websocket.DefaultDialer,
		log:      log.With().Str("component", "push-subscriber").Logger(),
	}
}

var _ conversation.Subscriber = (*Subscriber)(nil)

// Subscribe dials the realtime endpoint and subscribes to the message stream
// of one conversation. The returned subscription delivers messages until its
// channel closes; Close releases the socket and is idempotent.
func (s *Subscriber) Subscribe(ctx context.Context, conversationID string) (conversation.Subscription, error) {
	header := http.Header{}
	header.Set("X-Api-Key", s.key)

	conn, _, err := s.dialer.DialContext(ctx, s.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime endpoint: %w", err)
	}

	topic := MessageTopic(conversationID)
	if err := conn.WriteJSON(frame{Type: frameSubscribe, Topic: topic}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send subscribe frame: %w", err)
	}

	// The subscribe handshake must complete within a bounded window; an
	// endpoint that accepts the socket but never acknowledges still routes
	// the caller to polling.
	deadline := time.Now().Add(ackTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	var ack frame
	if err := conn.ReadJSON(&ack); err != nil {
		conn.Close()
		return nil, fmt.Errorf("await subscribe ack: %w", err)
	}
	if ack.Type != frameSubscribed || ack.Topic != topic {
		conn.Close()
		return nil, fmt.Errorf("unexpected subscribe ack: type=%q topic=%q", ack.Type, ack.Topic)
	}
	_ = conn.SetReadDeadline(time.Time{})

	sub := &subscription{
		conn:   conn,
		events: make(chan conversation.Message, 16),
		done:   make(chan struct{}),
		log:    s.log.With().Str("conversation_id", conversationID).Logger(),
	}
	go sub.readLoop()

	s.log.Debug().Str("topic", topic).Msg("push subscription established")
	return sub, nil
}

// MessageTopic returns the stream topic for a conversation's new messages.
func MessageTopic(conversationID string) string {
	return fmt.Sprintf("conversations:%s:messages", conversationID)
}

// subscription is one live websocket subscription.
type subscription struct {
	conn      *websocket.Conn
	events    chan conversation.Message
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

// Events delivers pushed messages. The channel is closed when the socket
// drops or the subscription is closed.
func (s *subscription) Events() <-chan conversation.Message {
	return s.events
}

// Close releases the socket. The read loop then closes the events channel.
func (s *subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = s.conn.Close()
	})
	return err
}

// readLoop decodes frames until the socket errors or closes. Unknown frame
// types are skipped so the channel protocol can grow without breaking old
// clients.
func (s *subscription) readLoop() {
	defer close(s.events)

	for {
		var f frame
		if err := s.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn().Err(err).Msg("push socket dropped")
			}
			return
		}

		switch f.Type {
		case framePing:
			_ = s.conn.WriteJSON(frame{Type: framePong})
		case frameMessage:
			var m conversation.Message
			if err := json.Unmarshal(f.Payload, &m); err != nil {
				s.log.Warn().Err(err).Msg("malformed pushed message, skipping")
				continue
			}
			select {
			case s.events <- m:
			case <-s.done:
				return
			}
		}
	}
}
