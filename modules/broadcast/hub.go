package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is the subset of a WebSocket connection the hub needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents one live realtime connection. A client is a member of at
// most one room at a time; membership does not survive disconnects.
type Client struct {
	ID       string
	Username string
	UserID   string // empty for anonymous sessions
	RoomTag  string
	Conn     Conn
}

// Frame is the envelope written to WebSocket clients.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub maintains the set of connected clients and their room memberships and
// fans events out to rooms. Rooms come into existence on first join and
// vanish when their last member leaves.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	rooms      map[string]map[string]bool // room tag -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *outbound
	done       chan struct{}
	mu         sync.RWMutex
}

type outbound struct {
	roomTag  string
	frame    Frame
	excluded string // clientID skipped during fan-out, "" for none
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s (%s) registered", client.ID, client.Username)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	h.dropMembership(client)
	log.Printf("[hub] Client %s (%s) unregistered", client.ID, client.Username)
}

// dropMembership removes the client from its room set. Caller holds h.mu.
func (h *Hub) dropMembership(client *Client) {
	if client.RoomTag == "" || h.rooms[client.RoomTag] == nil {
		return
	}
	delete(h.rooms[client.RoomTag], client.ID)
	if len(h.rooms[client.RoomTag]) == 0 {
		delete(h.rooms, client.RoomTag)
	}
}

func (h *Hub) handleBroadcast(msg *outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.frame)
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast frame: %v", err)
		return
	}

	clientIDs, ok := h.rooms[msg.roomTag]
	if !ok {
		// No members joined at fan-out time; nothing observable happens.
		return
	}
	for clientID := range clientIDs {
		if clientID == msg.excluded {
			continue
		}
		if client, ok := h.clients[clientID]; ok {
			h.sendToClient(client, data)
		}
	}
}

// sendToClient is fire-and-forget; a failed write is logged and the client
// will be cleaned up when its read loop notices the dead connection.
func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and any room it joined.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast delivers a frame to every client currently joined to the room.
// There is no buffering for clients that join after the call.
func (h *Hub) Broadcast(roomTag, event string, payload any) {
	h.broadcast <- &outbound{roomTag: roomTag, frame: Frame{Event: event, Data: payload}}
}

// BroadcastExcept is Broadcast minus one client, used for typing relays.
func (h *Hub) BroadcastExcept(roomTag, event string, payload any, excludedClientID string) {
	h.broadcast <- &outbound{
		roomTag:  roomTag,
		frame:    Frame{Event: event, Data: payload},
		excluded: excludedClientID,
	}
}

// JoinRoom moves a client into a room, creating the room lazily. Re-joining
// the same room is a no-op; joining another room leaves the current one
// first.
func (h *Hub) JoinRoom(clientID, roomTag string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	if client.RoomTag == roomTag {
		return
	}

	h.dropMembership(client)

	client.RoomTag = roomTag
	if h.rooms[roomTag] == nil {
		h.rooms[roomTag] = make(map[string]bool)
	}
	h.rooms[roomTag][clientID] = true
	log.Printf("[hub] Client %s joined room %s", clientID, roomTag)
}

// LeaveRoom removes a client from its current room. Idempotent.
func (h *Hub) LeaveRoom(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok || client.RoomTag == "" {
		return
	}
	h.dropMembership(client)
	log.Printf("[hub] Client %s left room %s", clientID, client.RoomTag)
	client.RoomTag = ""
}

// SendTo writes a frame to a single client, bypassing room fan-out. Used for
// history replay, which goes to the requester only.
func (h *Hub) SendTo(clientID, event string, payload any) {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		log.Printf("[hub] Failed to marshal frame: %v", err)
		return
	}
	h.sendToClient(client, data)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients joined to a room.
func (h *Hub) RoomClientCount(roomTag string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[roomTag]; ok {
		return len(clients)
	}
	return 0
}
