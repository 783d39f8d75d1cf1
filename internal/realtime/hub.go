package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/metrics"
)

// Hub is the registry of connected sessions. It is created once by the
// process and handed to everything that pushes messages.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	logger  *logrus.Entry
	metrics *metrics.Metrics
	now     func() time.Time
}

// HubStats is a snapshot of the registry
type HubStats struct {
	ConnectedClients int             `json:"connectedClients"`
	Subscriptions    map[Channel]int `json:"subscriptions"`
}

// NewHub creates a new Hub instance. m may be nil.
func NewHub(logger *logrus.Logger, m *metrics.Metrics) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		logger:   logger.WithField("component", "realtime.hub"),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register adds a session, greets it and tells its peers. It reports false
// once the hub has shut down.
func (h *Hub) Register(s *Session) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.sessions[s.ID] = s
	count := len(h.sessions)
	h.mu.Unlock()

	h.setGauge(count)
	h.logger.WithFields(logrus.Fields{
		"client_id":     s.ID,
		"user_id":       s.UserID,
		"authenticated": s.Authenticated,
		"connected":     count,
	}).Info("Session registered")

	s.SendMessage(&OutgoingMessage{
		Type: MessageTypeConnectionEstablished,
		Data: ConnectionEstablishedData{
			ClientID:         s.ID,
			Timestamp:        h.now(),
			ConnectedClients: count,
			Authenticated:    s.Authenticated,
		},
	})
	h.broadcastExcept(s.ID, &OutgoingMessage{
		Type: MessageTypeClientConnected,
		Data: PeerCountData{ConnectedClients: count, Timestamp: h.now()},
	})
	return true
}

// Unregister removes a session and tells the remaining peers
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s.ID)
	count := len(h.sessions)
	h.mu.Unlock()

	s.close()
	h.setGauge(count)
	h.logger.WithFields(logrus.Fields{
		"client_id": s.ID,
		"connected": count,
	}).Info("Session unregistered")

	h.broadcastExcept("", &OutgoingMessage{
		Type: MessageTypeClientDisconnected,
		Data: PeerCountData{ConnectedClients: count, Timestamp: h.now()},
	})
}

// Publish delivers msg to every session subscribed to ch at this instant and
// returns how many sessions accepted it.
func (h *Hub) Publish(ch Channel, msg *OutgoingMessage) int {
	return h.fanOut(msg, func(s *Session) bool { return s.IsSubscribed(ch) })
}

// Broadcast delivers msg to every session
func (h *Hub) Broadcast(msg *OutgoingMessage) int {
	return h.fanOut(msg, func(*Session) bool { return true })
}

func (h *Hub) broadcastExcept(id string, msg *OutgoingMessage) int {
	return h.fanOut(msg, func(s *Session) bool { return s.ID != id })
}

func (h *Hub) fanOut(msg *OutgoingMessage, include func(*Session) bool) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).WithField("type", msg.Type).Error("Failed to marshal message")
		return 0
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if include(s) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.enqueue(msg.Type, data) {
			delivered++
		}
	}
	return delivered
}

// ConnectedCount returns the number of registered sessions
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stats returns the session count and per-channel subscriber counts
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{
		ConnectedClients: len(h.sessions),
		Subscriptions:    make(map[Channel]int, len(Channels)),
	}
	for _, ch := range Channels {
		stats.Subscriptions[ch] = 0
	}
	for _, s := range h.sessions {
		for _, ch := range s.Subscriptions() {
			stats.Subscriptions[ch]++
		}
	}
	return stats
}

// Shutdown announces message to every session, then closes them all. Later
// registrations are refused.
func (h *Hub) Shutdown(message string) {
	h.Broadcast(&OutgoingMessage{
		Type: MessageTypeSystemMessage,
		Data: SystemMessageData{Message: message, Timestamp: h.now(), Type: "announcement"},
	})

	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.closed = true
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	h.setGauge(0)
	h.logger.WithField("closed_sessions", len(sessions)).Info("Realtime hub shut down")
}

func (h *Hub) setGauge(count int) {
	if h.metrics != nil {
		h.metrics.RealtimeSessions.Set(float64(count))
	}
}

func (h *Hub) observeDelivery(msgType MessageType, delivered bool) {
	if h.metrics == nil {
		return
	}
	if delivered {
		h.metrics.RealtimeDelivered.WithLabelValues(string(msgType)).Inc()
	} else {
		h.metrics.RealtimeDropped.WithLabelValues(string(msgType)).Inc()
	}
}
