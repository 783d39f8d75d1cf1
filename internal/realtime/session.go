package realtime

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/auth"
)

// SessionConfig tunes the WebSocket pumps
type SessionConfig struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

// DefaultSessionConfig returns the pump settings used in production
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingInterval:   54 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     256,
	}
}

// Session represents a single WebSocket connection
type Session struct {
	ID            string
	UserID        string
	Authenticated bool
	ConnectedAt   time.Time

	hub  *Hub
	conn *websocket.Conn
	cfg  SessionConfig
	send chan []byte

	mu            sync.Mutex
	subscriptions map[Channel]struct{}
	lastActivity  time.Time
	closed        bool
}

// NewSession creates a session for conn. conn may be nil in tests.
func NewSession(hub *Hub, conn *websocket.Conn, identity auth.Identity, cfg SessionConfig) *Session {
	now := hub.now()
	return &Session{
		ID:            uuid.NewString(),
		UserID:        identity.UserID,
		Authenticated: identity.Authenticated,
		ConnectedAt:   now,
		hub:           hub,
		conn:          conn,
		cfg:           cfg,
		send:          make(chan []byte, cfg.SendBuffer),
		subscriptions: make(map[Channel]struct{}),
		lastActivity:  now,
	}
}

// SendMessage queues msg for delivery. It reports false when the message was
// dropped because the buffer is full or the session is closed.
func (s *Session) SendMessage(msg *OutgoingMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		s.hub.logger.WithError(err).WithField("type", msg.Type).Error("Failed to marshal message")
		return false
	}
	return s.enqueue(msg.Type, data)
}

func (s *Session) enqueue(msgType MessageType, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.send <- data:
		s.hub.observeDelivery(msgType, true)
		return true
	default:
		s.hub.observeDelivery(msgType, false)
		s.hub.logger.WithFields(logrus.Fields{
			"client_id": s.ID,
			"type":      msgType,
		}).Warn("Session send buffer full, dropping message")
		return false
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}

// Subscribe adds every known channel in names and returns the accepted ones
func (s *Session) Subscribe(names []string) []Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	accepted := make([]Channel, 0, len(names))
	for _, name := range names {
		ch, ok := ParseChannel(name)
		if !ok {
			continue
		}
		s.subscriptions[ch] = struct{}{}
		accepted = append(accepted, ch)
	}
	return accepted
}

// IsSubscribed reports whether the session receives ch
func (s *Session) IsSubscribed(ch Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.subscriptions[ch]
	return ok
}

// Subscriptions returns the subscribed channels in name order
func (s *Session) Subscriptions() []Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Channel, 0, len(s.subscriptions))
	for ch := range s.subscriptions {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LastActivity is when the client last sent anything
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = s.hub.now()
	s.mu.Unlock()
}

// ReadPump reads messages from the WebSocket connection
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.hub.logger.WithError(err).WithField("client_id", s.ID).Warn("WebSocket read error")
			}
			break
		}

		s.handleMessage(message)
	}
}

// WritePump writes queued messages to the WebSocket connection, one frame
// per message.
func (s *Session) WritePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) handleMessage(message []byte) {
	s.touch()

	var msg IncomingMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		s.sendError("INVALID_JSON", "Failed to parse message")
		return
	}

	switch msg.Type {
	case IncomingSubscribe:
		var data SubscribeData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.sendError("INVALID_DATA", "Failed to parse subscribe_to_updates data")
			return
		}
		accepted := s.Subscribe(data.Types)
		s.hub.logger.WithFields(logrus.Fields{
			"client_id": s.ID,
			"channels":  accepted,
		}).Debug("Session subscriptions updated")
		s.SendMessage(&OutgoingMessage{
			Type: MessageTypeSubscriptionsUpdated,
			Data: SubscriptionsUpdatedData{Subscribed: accepted, Timestamp: s.hub.now()},
		})

	case IncomingPing:
		echo := map[string]interface{}{}
		if len(msg.Data) > 0 {
			// non-object payloads are not echoed
			_ = json.Unmarshal(msg.Data, &echo)
			if echo == nil {
				echo = map[string]interface{}{}
			}
		}
		echo["serverTime"] = s.hub.now()
		s.SendMessage(&OutgoingMessage{Type: MessageTypePong, Data: echo})

	case IncomingRequestAnalyticsUpdate:
		var data AnalyticsUpdateRequestData
		if len(msg.Data) > 0 {
			_ = json.Unmarshal(msg.Data, &data)
		}
		s.SendMessage(&OutgoingMessage{
			Type: MessageTypeAnalyticsUpdateRequested,
			Data: AnalyticsUpdateRequestedData{RequestID: data.RequestID, Timestamp: s.hub.now()},
		})

	default:
		s.sendError("UNKNOWN_TYPE", "Unknown message type: "+msg.Type)
	}
}

func (s *Session) sendError(code, message string) {
	s.SendMessage(&OutgoingMessage{
		Type: MessageTypeError,
		Data: ErrorData{
			Code:    code,
			Message: message,
		},
	})
}
