package realtime

import (
	"encoding/json"
	"time"
)

// Channel is a named subscription stream
type Channel string

const (
	ChannelSales     Channel = "sales"
	ChannelCustomers Channel = "customers"
	ChannelProducts  Channel = "products"
	ChannelAnalytics Channel = "analytics"
)

// Channels lists every channel a session may subscribe to
var Channels = []Channel{ChannelSales, ChannelCustomers, ChannelProducts, ChannelAnalytics}

// ParseChannel maps a client-supplied name onto a known channel
func ParseChannel(name string) (Channel, bool) {
	for _, ch := range Channels {
		if string(ch) == name {
			return ch, true
		}
	}
	return "", false
}

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeConnectionEstablished    MessageType = "connection_established"
	MessageTypeClientConnected          MessageType = "client_connected"
	MessageTypeClientDisconnected       MessageType = "client_disconnected"
	MessageTypeSubscriptionsUpdated     MessageType = "subscriptions_updated"
	MessageTypePong                     MessageType = "pong"
	MessageTypeAnalyticsUpdateRequested MessageType = "analytics_update_requested"
	MessageTypeNewSalesData             MessageType = "new_sales_data"
	MessageTypeNewCustomerData          MessageType = "new_customer_data"
	MessageTypeNewProductData           MessageType = "new_product_data"
	MessageTypeAnalyticsUpdated         MessageType = "analytics_updated"
	MessageTypeSalesDataChanged         MessageType = "sales_data_changed"
	MessageTypeCustomerDataChanged      MessageType = "customer_data_changed"
	MessageTypeProductDataChanged       MessageType = "product_data_changed"
	MessageTypeDataUpdateNotification   MessageType = "data_update_notification"
	MessageTypeSystemMessage            MessageType = "system_message"
	MessageTypeError                    MessageType = "error"
)

// Client-to-server message types
const (
	IncomingSubscribe              = "subscribe_to_updates"
	IncomingPing                   = "ping"
	IncomingRequestAnalyticsUpdate = "request_analytics_update"
)

// OutgoingMessage represents a message sent to clients
type OutgoingMessage struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data"`
}

// IncomingMessage represents a message received from clients
type IncomingMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ConnectionEstablishedData greets a new session
type ConnectionEstablishedData struct {
	ClientID         string    `json:"clientId"`
	Timestamp        time.Time `json:"timestamp"`
	ConnectedClients int       `json:"connectedClients"`
	Authenticated    bool      `json:"authenticated"`
}

// PeerCountData tells peers how many sessions are connected
type PeerCountData struct {
	ConnectedClients int       `json:"connectedClients"`
	Timestamp        time.Time `json:"timestamp"`
}

// SubscribeData is the payload of subscribe_to_updates
type SubscribeData struct {
	Types []string `json:"types"`
}

// SubscriptionsUpdatedData confirms the accepted channels
type SubscriptionsUpdatedData struct {
	Subscribed []Channel `json:"subscribed"`
	Timestamp  time.Time `json:"timestamp"`
}

// AnalyticsUpdateRequestData is the payload of request_analytics_update
type AnalyticsUpdateRequestData struct {
	RequestID string `json:"requestId"`
}

// AnalyticsUpdateRequestedData acknowledges request_analytics_update
type AnalyticsUpdateRequestedData struct {
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordData carries a record created through the API
type NewRecordData struct {
	Data             any       `json:"data"`
	Timestamp        time.Time `json:"timestamp"`
	ConnectedClients int       `json:"connectedClients"`
}

// AnalyticsUpdatedData carries a freshly generated report
type AnalyticsUpdatedData struct {
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// DataChangedData describes a store-level row mutation
type DataChangedData struct {
	OperationType string    `json:"operationType"`
	DocumentID    string    `json:"documentId"`
	Timestamp     time.Time `json:"timestamp"`
	Data          any       `json:"data"`
}

// DataUpdateNotificationData hints analytics subscribers to refresh
type DataUpdateNotificationData struct {
	Source    string    `json:"source"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemMessageData is a broadcast to every session
type SystemMessageData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// ErrorData represents error message data
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
