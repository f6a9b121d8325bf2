package events

import (
	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono/pkg/helper"
)

// MessageSentEvent is emitted after a message has been persisted.
type MessageSentEvent struct {
	Message domain.Message `json:"message"`
}

// MessageEditedEvent is emitted after a message edit has been persisted.
// It carries the full updated message so every client converges on one state.
type MessageEditedEvent struct {
	Message domain.Message `json:"message"`
}

// MessageDeletedEvent is emitted after a message has been removed.
type MessageDeletedEvent struct {
	MessageID string `json:"message_id"`
	Room      string `json:"room"`
}

// TypingEvent is a transient typing indicator. SenderClientID identifies the
// originating connection so fan-out can exclude it. Never persisted.
type TypingEvent struct {
	Room           string `json:"room"`
	Username       string `json:"username"`
	IsTyping       bool   `json:"isTyping"`
	SenderClientID string `json:"sender_client_id"`
}

// Event definitions for the chat domain.
var (
	MessageSentV1 = helper.EventDefinition[MessageSentEvent](
		"chat",
		"MessageSent",
		"v1",
	)

	MessageEditedV1 = helper.EventDefinition[MessageEditedEvent](
		"chat",
		"MessageEdited",
		"v1",
	)

	MessageDeletedV1 = helper.EventDefinition[MessageDeletedEvent](
		"chat",
		"MessageDeleted",
		"v1",
	)

	TypingV1 = helper.EventDefinition[TypingEvent](
		"chat",
		"Typing",
		"v1",
	)
)
