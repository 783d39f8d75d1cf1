package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/tesseract-hub/sales-analytics-service/internal/auth"
	"github.com/tesseract-hub/sales-analytics-service/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// browsers are already filtered by the CORS origin list on the API
		return true
	},
}

// WebSocketHandler upgrades clients to realtime sessions
type WebSocketHandler struct {
	hub           *realtime.Hub
	authenticator *auth.TokenAuthenticator
	config        realtime.SessionConfig
	logger        *logrus.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *realtime.Hub, authenticator *auth.TokenAuthenticator, cfg realtime.SessionConfig, logger *logrus.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		authenticator: authenticator,
		config:        cfg,
		logger:        logger,
	}
}

// Handle upgrades the HTTP connection. The token may come from the token
// query parameter or a bearer header; a bad token connects anonymously.
// GET /ws
func (h *WebSocketHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = auth.BearerToken(c.GetHeader("Authorization"))
	}
	identity := h.authenticator.Authenticate(token)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to upgrade WebSocket")
		return
	}

	session := realtime.NewSession(h.hub, conn, identity, h.config)
	if !h.hub.Register(session) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go session.WritePump()
	go session.ReadPump()
}

// Stats returns a snapshot of connected sessions
// GET /api/realtime/stats
func (h *WebSocketHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.Stats())
}
