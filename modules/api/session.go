package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/example/realtime-chat/modules/broadcast"
	"github.com/example/realtime-chat/modules/chat"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// handleWebSocket runs one realtime session at /ws. A valid ?token= query
// binds the session to an account; anything else downgrades silently to an
// anonymous session that can read and send but never edit or delete.
func (m *Module) handleWebSocket(c *websocket.Conn) {
	clientID := uuid.New().String()

	client := &broadcast.Client{
		ID:       clientID,
		Username: chat.AnonymousName,
		Conn:     c,
	}

	if token := c.Query("token"); token != "" {
		if claims, err := m.authAdapter.ValidateToken(context.Background(), token); err == nil {
			client.UserID = claims.UserID
			client.Username = claims.Username
		} else {
			m.logger.Debug("Socket token rejected, continuing anonymous", "clientID", clientID)
		}
	}

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		m.logger.Debug("WebSocket client disconnected", "clientID", clientID, "username", client.Username)
	}()

	m.logger.Debug("WebSocket client connected", "clientID", clientID, "username", client.Username)

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Debug("Socket read error", "clientID", clientID, "error", err)
			}
			return
		}

		var frame WSFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			m.sendSocketError(client.Conn, "invalid frame")
			continue
		}

		switch frame.Event {
		case EventJoin:
			m.handleJoin(client, frame.Data)
		case EventChatMessage:
			m.handleChatMessage(client, frame.Data)
		case EventTyping:
			m.handleTyping(client, frame.Data)
		default:
			m.sendSocketError(client.Conn, "unknown event: "+frame.Event)
		}
	}
}

// handleJoin moves the client into a room and replays recent history to the
// requester only.
func (m *Module) handleJoin(client *broadcast.Client, data json.RawMessage) {
	var payload JoinPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			m.sendSocketError(client.Conn, "invalid join payload")
			return
		}
	}

	room, err := chat.NormalizeRoom(payload.Room)
	if err != nil {
		m.sendSocketError(client.Conn, err.Error())
		return
	}

	m.hub.JoinRoom(client.ID, room)

	history, err := m.chatAdapter.GetHistory(context.Background(), room, defaultHistoryLimit)
	if err != nil {
		m.logger.Error("Failed to load history", "room", room, "error", err)
		m.sendSocketError(client.Conn, "failed to load history")
		return
	}
	m.hub.SendTo(client.ID, EventHistory, history)
}

// handleChatMessage persists a message through the chat module. Fan-out to
// the room happens on the event path once the store write succeeds.
func (m *Module) handleChatMessage(client *broadcast.Client, data json.RawMessage) {
	var payload ChatMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		m.sendSocketError(client.Conn, "invalid chatMessage payload")
		return
	}

	username, userID := m.senderIdentity(client, payload.Username)

	if _, err := m.chatAdapter.SendMessage(context.Background(), payload.Room, username, userID, payload.Text); err != nil {
		m.sendChatError(client, "send", err)
	}
}

// handleTyping relays a typing indicator to everyone else in the room.
func (m *Module) handleTyping(client *broadcast.Client, data json.RawMessage) {
	var payload TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		m.sendSocketError(client.Conn, "invalid typing payload")
		return
	}

	username, _ := m.senderIdentity(client, payload.Username)

	if err := m.chatAdapter.RelayTyping(context.Background(), payload.Room, username, payload.IsTyping, client.ID); err != nil {
		m.sendChatError(client, "typing", err)
	}
}

// senderIdentity resolves the identity attached to outgoing frames. An
// authenticated session always speaks as its account; anonymous sessions may
// pick a display name per frame.
func (m *Module) senderIdentity(client *broadcast.Client, claimed string) (string, *string) {
	if client.UserID != "" {
		userID := client.UserID
		return client.Username, &userID
	}
	if claimed == "" {
		claimed = chat.AnonymousName
	}
	return claimed, nil
}

// sendChatError surfaces a chat module failure on the socket. Validation
// sentinels pass through; anything else, a store failure included, is logged
// and reported as a generic server error.
func (m *Module) sendChatError(client *broadcast.Client, operation string, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, chat.ErrRoomInvalid):
		m.sendSocketError(client.Conn, err.Error())
	default:
		m.logger.Error("Socket chat operation failed", "operation", operation, "clientID", client.ID, "error", err)
		m.sendSocketError(client.Conn, "server error")
	}
}

func (m *Module) sendSocketError(conn broadcast.Conn, message string) {
	frame := broadcast.Frame{Event: EventError, Data: map[string]string{"message": message}}
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}
