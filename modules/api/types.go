package api

import (
	"encoding/json"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Socket event names, client to server.
const (
	EventJoin        = "join"
	EventChatMessage = "chatMessage"
	EventTyping      = "typing"
)

// Socket event names, server to client.
const (
	EventHistory = "history"
	EventError   = "error"
)

// WSFrame is the socket envelope in both directions.
type WSFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the data of a join frame. The wire form is a bare room-tag
// string; the {room} object form is accepted as well.
type JoinPayload struct {
	Room string `json:"room"`
}

func (p *JoinPayload) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.Room)
	}
	type plain JoinPayload
	return json.Unmarshal(data, (*plain)(p))
}

// ChatMessagePayload is the data of a chatMessage frame.
type ChatMessagePayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// TypingPayload is the data of a typing frame.
type TypingPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// RegisterBody is the REST request to create an account.
type RegisterBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginBody is the REST request to log in.
type LoginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginReply is the REST response for a successful login.
type LoginReply struct {
	Token     string  `json:"token"`
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatarUrl"`
}

// UserReply is the REST response for a user profile.
type UserReply struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
}

// EditMessageBody is the REST request to edit a message.
type EditMessageBody struct {
	Text string `json:"text"`
}

// AvatarReply is the REST response for a stored avatar.
type AvatarReply struct {
	Message   string `json:"message"`
	AvatarURL string `json:"avatarUrl"`
}

// EditReply is the REST acknowledgement of a successful edit.
type EditReply struct {
	Message string          `json:"message"`
	Msg     *domain.Message `json:"msg"`
}

// DeleteReply is the REST acknowledgement of a successful delete.
type DeleteReply struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MessageReply is a plain REST acknowledgement.
type MessageReply struct {
	Message string `json:"message"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}
