package hub

import (
	"encoding/json"
	"sync"

	"github.com/Dias221467/social_network/internal/models"
	"github.com/Dias221467/social_network/pkg/metrics"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Delivery modes for stored messages.
const (
	// ModeParticipants sends a message only to connections bound to its sender or receiver.
	ModeParticipants = "participants"
	// ModeBroadcast sends every message to every live connection.
	ModeBroadcast = "broadcast"
)

// Client is one live connection. Frames queued on it are written by the
// connection's own writer goroutine.
type Client struct {
	send   chan []byte
	userID primitive.ObjectID
}

// Send is drained by the connection writer and closed when the client is unregistered.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// Hub tracks live connections and which identity each one last authenticated as.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[primitive.ObjectID]map[*Client]struct{}
	mode    string
	buffer  int
}

// NewHub creates a Hub. Unknown modes fall back to ModeParticipants.
func NewHub(mode string, buffer int) *Hub {
	if mode != ModeBroadcast {
		mode = ModeParticipants
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[primitive.ObjectID]map[*Client]struct{}),
		mode:    mode,
		buffer:  buffer,
	}
}

func (h *Hub) Mode() string {
	return h.mode
}

// Register adds a new anonymous connection.
func (h *Hub) Register() *Client {
	c := &Client{send: make(chan []byte, h.buffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	metrics.ConnectionOpened()
	return c
}

// Unregister removes c and closes its queue. Calling it twice is safe.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.unbindLocked(c)
	close(c.send)
	metrics.ConnectionClosed()
}

// Bind records that c authenticated as userID, replacing any earlier identity.
func (h *Hub) Bind(c *Client, userID primitive.ObjectID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok || c.userID == userID {
		return
	}
	h.unbindLocked(c)
	c.userID = userID
	conns, ok := h.byUser[userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.byUser[userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unbindLocked(c *Client) {
	if c.userID.IsZero() {
		return
	}
	if conns, ok := h.byUser[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	c.userID = primitive.NilObjectID
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo queues frame for c only. It reports false if c is gone or its queue is full.
func (h *Hub) SendTo(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	return enqueue(c, frame)
}

// Broadcast queues frame for every live connection.
func (h *Hub) Broadcast(frame []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.clients {
		if enqueue(c, frame) {
			delivered++
		}
	}
	return delivered
}

// SendToUsers queues frame for every connection bound to one of userIDs.
func (h *Hub) SendToUsers(frame []byte, userIDs ...primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	seen := make(map[primitive.ObjectID]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		for c := range h.byUser[id] {
			if enqueue(c, frame) {
				delivered++
			}
		}
	}
	return delivered
}

// PublishMessage fans a stored message out according to the hub's mode.
func (h *Hub) PublishMessage(msg models.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		logrus.WithError(err).Error("Failed to encode message frame")
		return
	}

	var delivered int
	if h.mode == ModeBroadcast {
		delivered = h.Broadcast(frame)
	} else {
		delivered = h.SendToUsers(frame, msg.SenderID, msg.ReceiverID)
	}

	logrus.WithFields(logrus.Fields{
		"messageID":   msg.ID.Hex(),
		"mode":        h.mode,
		"connections": delivered,
	}).Debug("Message published")
}

// enqueue never blocks: a connection that cannot keep up loses the frame.
func enqueue(c *Client, frame []byte) bool {
	select {
	case c.send <- frame:
		metrics.FrameQueued()
		return true
	default:
		metrics.FrameDropped()
		return false
	}
}
