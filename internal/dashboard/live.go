package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/realtime"
)

// refreshTriggers are the pushes after which the report is stale
var refreshTriggers = map[realtime.MessageType]bool{
	realtime.MessageTypeNewSalesData:           true,
	realtime.MessageTypeAnalyticsUpdated:       true,
	realtime.MessageTypeSalesDataChanged:       true,
	realtime.MessageTypeDataUpdateNotification: true,
}

// Event is one server push seen by the watcher
type Event struct {
	Type realtime.MessageType
	Raw  json.RawMessage
}

// WebSocketURL derives the socket endpoint from the API base URL
// (http://host:5000/api -> ws://host:5000/ws).
func WebSocketURL(apiBaseURL, token string) (string, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid API URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(strings.TrimRight(u.Path, "/"), "/api") + "/ws"
	u.RawQuery = ""
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	return u.String(), nil
}

// Watch subscribes to sales and analytics pushes and calls onEvent for each
// message, refreshing d first when the message makes the report stale. It
// returns when ctx is done or the connection drops.
func Watch(ctx context.Context, wsURL string, d *Dashboard, onEvent func(Event), logger *logrus.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	subscribe := realtime.IncomingMessage{Type: realtime.IncomingSubscribe}
	subscribe.Data, _ = json.Marshal(realtime.SubscribeData{
		Types: []string{string(realtime.ChannelSales), string(realtime.ChannelAnalytics)},
	})
	if err := conn.WriteJSON(subscribe); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	log := logger.WithField("component", "dashboard_watch")
	for {
		var msg struct {
			Type realtime.MessageType `json:"type"`
			Data json.RawMessage      `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("realtime connection lost: %w", err)
		}

		log.WithField("type", msg.Type).Debug("Realtime message received")
		if refreshTriggers[msg.Type] && d != nil {
			d.DataChanged(ctx)
		}
		if onEvent != nil {
			onEvent(Event{Type: msg.Type, Raw: msg.Data})
		}
	}
}
