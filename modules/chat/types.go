package chat

import (
	domain "github.com/example/realtime-chat/domain/chat"
)

// Service container endpoints exposed by the chat module.
const (
	ServiceSendMessage   = "send-message"
	ServiceGetHistory    = "get-history"
	ServiceListMessages  = "list-messages"
	ServiceEditMessage   = "edit-message"
	ServiceDeleteMessage = "delete-message"
)

// Error codes carried in responses. Domain failures cross the service
// container as data, not as transport errors.
const (
	CodeNotFound   = "not_found"
	CodeForbidden  = "forbidden"
	CodeValidation = "validation"
)

// SendMessageRequest asks the chat module to persist a new message.
type SendMessageRequest struct {
	Room     string  `json:"room"`
	Username string  `json:"username"`
	UserID   *string `json:"user_id"`
	Text     string  `json:"text"`
}

// SendMessageResponse carries the persisted message or a failure.
type SendMessageResponse struct {
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// GetHistoryRequest asks for the most recent messages of a room.
type GetHistoryRequest struct {
	Room  string `json:"room"`
	Limit int    `json:"limit"`
}

// GetHistoryResponse carries history oldest-first.
type GetHistoryResponse struct {
	Messages []domain.Message `json:"messages"`
	Error    string           `json:"error,omitempty"`
	Code     string           `json:"code,omitempty"`
}

// ListMessagesRequest asks for one page of a room's history.
type ListMessagesRequest struct {
	Room  string `json:"room"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// ListMessagesResponse carries the requested page oldest-first.
type ListMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
	Error    string           `json:"error,omitempty"`
	Code     string           `json:"code,omitempty"`
}

// EditMessageRequest asks to replace the text of an owned message.
type EditMessageRequest struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
}

// EditMessageResponse carries the full updated message on success.
type EditMessageResponse struct {
	Message *domain.Message `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// DeleteMessageRequest asks to remove an owned message.
type DeleteMessageRequest struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

// DeleteMessageResponse reports the room the message belonged to.
type DeleteMessageResponse struct {
	MessageID string `json:"message_id,omitempty"`
	Room      string `json:"room,omitempty"`
	Error     string `json:"error,omitempty"`
	Code      string `json:"code,omitempty"`
}

// RelayTypingRequest relays a typing indicator to a room. SenderClientID
// identifies the originating connection so fan-out can skip it.
type RelayTypingRequest struct {
	Room           string `json:"room"`
	Username       string `json:"username"`
	IsTyping       bool   `json:"isTyping"`
	SenderClientID string `json:"sender_client_id"`
}

// RelayTypingResponse acknowledges the relay.
type RelayTypingResponse struct {
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}
