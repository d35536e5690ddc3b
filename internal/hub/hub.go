// Package hub holds the process-lifetime registry of live socket connections.
// It owns no persistent state: a restart drops every registration and room
// membership, and clients re-register on reconnect. Delivery is fire-and-forget
// with at-most-once semantics per connected peer.
package hub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event is the wire format for everything pushed over the socket channel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maps connections to the user that owns them and to the conversation
// rooms they joined. A user may hold several connections (multiple tabs); a
// room may hold many connections.
type Hub struct {
	mu    sync.RWMutex
	users map[string]map[*Client]bool
	rooms map[string]map[*Client]bool
	log   *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Hub {
	return &Hub{
		users: make(map[string]map[*Client]bool),
		rooms: make(map[string]map[*Client]bool),
		log:   log,
	}
}

// Register binds a connection to a user id. Calling it again on the same
// connection rebinds it: last write wins.
func (h *Hub) Register(c *Client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.userID != "" && c.userID != userID {
		h.removeFromUserLocked(c)
	}
	c.userID = userID
	if h.users[userID] == nil {
		h.users[userID] = make(map[*Client]bool)
	}
	h.users[userID][c] = true
}

// JoinRoom adds the connection to a room. Room ids are conversation ids.
func (h *Hub) JoinRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	c.rooms[roomID] = true
}

// LeaveRoom removes the connection from one room.
func (h *Hub) LeaveRoom(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(c, roomID)
}

// Disconnect removes the connection from every room and from the user
// mapping, and closes its send channel. Called when the transport drops.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range c.rooms {
		h.removeFromRoomLocked(c, roomID)
	}
	h.removeFromUserLocked(c)
	c.closeSend()
}

// EmitToRoom delivers payload under event type to every connection currently
// joined to the room.
func (h *Hub) EmitToRoom(roomID, event string, payload interface{}) {
	h.emitToRoom(roomID, event, payload, nil)
}

// EmitToRoomExcept is EmitToRoom minus the originating connection, used when
// the event was triggered over the socket channel itself.
func (h *Hub) EmitToRoomExcept(roomID, event string, payload interface{}, origin *Client) {
	h.emitToRoom(roomID, event, payload, origin)
}

func (h *Hub) emitToRoom(roomID, event string, payload interface{}, exclude *Client) {
	b, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		h.log.Warnw("hub: marshal event", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c == exclude {
			continue
		}
		c.trySend(b)
	}
}

// EmitToUser delivers to every connection registered under userID and reports
// whether at least one connection took the event.
func (h *Hub) EmitToUser(userID, event string, payload interface{}) bool {
	b, err := json.Marshal(Event{Type: event, Payload: payload})
	if err != nil {
		h.log.Warnw("hub: marshal event", "event", event, "err", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.users[userID] {
		if c.trySend(b) {
			delivered = true
		}
	}
	return delivered
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) removeFromRoomLocked(c *Client, roomID string) {
	delete(c.rooms, roomID)
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) removeFromUserLocked(c *Client) {
	if c.userID == "" {
		return
	}
	if conns, ok := h.users[c.userID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.users, c.userID)
		}
	}
}
