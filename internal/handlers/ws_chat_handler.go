package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Dias221467/social_network/internal/hub"
	"github.com/Dias221467/social_network/internal/services"
	"github.com/Dias221467/social_network/pkg/apperrors"
	"github.com/Dias221467/social_network/pkg/metrics"
	"github.com/Dias221467/social_network/pkg/middleware"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameBytes  = 16 << 10
	frameTimeout   = 10 * time.Second
	errInvalidPeer = "Invalid receiver or not friends"
)

// chatFrame is the inbound real-time payload. Every frame carries its own token.
type chatFrame struct {
	Token      string `json:"token"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// WSChatHandler serves the real-time chat socket.
type WSChatHandler struct {
	Service  *services.ChatService
	Hub      *hub.Hub
	Verifier middleware.TokenVerifier
	upgrader websocket.Upgrader
}

func NewWSChatHandler(service *services.ChatService, h *hub.Hub, verifier middleware.TokenVerifier, allowedOrigin string) *WSChatHandler {
	return &WSChatHandler{
		Service:  service,
		Hub:      h,
		Verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

// ServeWS upgrades the connection. It is unauthenticated until a frame with a valid token arrives.
func (h *WSChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := h.Hub.Register()
	logrus.WithField("connections", h.Hub.Count()).Info("WebSocket connected")

	go h.writePump(conn, client)
	h.readLoop(conn, client)
}

func (h *WSChatHandler) readLoop(conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.Hub.Unregister(client)
		conn.Close()
		logrus.WithField("connections", h.Hub.Count()).Info("WebSocket disconnected")
	}()

	conn.SetReadLimit(maxFrameBytes)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.WithError(err).Warn("WebSocket read error")
			}
			return
		}
		h.handleFrame(client, data)
	}
}

// handleFrame processes one inbound frame. Failures are answered on this connection only.
func (h *WSChatHandler) handleFrame(client *hub.Client, data []byte) {
	var frame chatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.reject(client, "invalid_payload", "Invalid payload")
		return
	}

	subject, err := h.Verifier.Verify(frame.Token)
	if err != nil {
		h.reject(client, "invalid_token", "Invalid token")
		return
	}
	senderID, err := primitive.ObjectIDFromHex(subject)
	if err != nil {
		h.reject(client, "invalid_token", "Invalid token")
		return
	}
	h.Hub.Bind(client, senderID)

	receiverID, err := primitive.ObjectIDFromHex(frame.ReceiverID)
	if err != nil {
		h.reject(client, "not_friends", errInvalidPeer)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
	defer cancel()

	if _, err := h.Service.SendMessage(ctx, senderID, receiverID, frame.Content); err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindValidation:
			h.reject(client, "invalid_payload", apperrors.PublicMessage(err))
		case apperrors.KindNotFound, apperrors.KindConflict:
			h.reject(client, "not_friends", errInvalidPeer)
		default:
			logrus.WithError(err).Error("Failed to deliver chat frame")
			h.reject(client, "error", "Server error")
		}
		return
	}
	metrics.ChatFrame("delivered")
}

func (h *WSChatHandler) reject(client *hub.Client, outcome, message string) {
	metrics.ChatFrame(outcome)
	payload, err := json.Marshal(errorFrame{Error: message})
	if err != nil {
		return
	}
	h.Hub.SendTo(client, payload)
}

// writePump is the only goroutine that writes to conn.
func (h *WSChatHandler) writePump(conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
