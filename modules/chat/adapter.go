package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the interface other modules use to reach chat operations.
type ChatPort interface {
	SendMessage(ctx context.Context, room, username string, userID *string, text string) (*domain.Message, error)
	GetHistory(ctx context.Context, room string, limit int) ([]domain.Message, error)
	ListMessages(ctx context.Context, room string, page, limit int) ([]domain.Message, error)
	EditMessage(ctx context.Context, messageID, userID, text string) (*domain.Message, error)
	DeleteMessage(ctx context.Context, messageID, userID string) (string, error)
	RelayTyping(ctx context.Context, room, username string, isTyping bool, senderClientID string) error
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) *ChatAdapter {
	return &ChatAdapter{container: container}
}

// errorFromCode maps a response error code back onto a sentinel error.
func errorFromCode(code, message string) error {
	switch code {
	case CodeNotFound:
		return ErrMessageNotFound
	case CodeForbidden:
		return ErrForbidden
	case CodeValidation:
		switch message {
		case ErrMessageTooLong.Error():
			return ErrMessageTooLong
		case ErrRoomInvalid.Error():
			return ErrRoomInvalid
		default:
			return ErrEmptyMessage
		}
	default:
		return fmt.Errorf("chat service error: %s", message)
	}
}

// SendMessage persists a message and returns it with id and timestamp set.
func (a *ChatAdapter) SendMessage(ctx context.Context, room, username string, userID *string, text string) (*domain.Message, error) {
	req := SendMessageRequest{Room: room, Username: username, UserID: userID, Text: text}
	var resp SendMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceSendMessage,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("send-message request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return resp.Message, nil
}

// GetHistory returns the newest messages of a room, oldest-first.
func (a *ChatAdapter) GetHistory(ctx context.Context, room string, limit int) ([]domain.Message, error) {
	req := GetHistoryRequest{Room: room, Limit: limit}
	var resp GetHistoryResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceGetHistory,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-history request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return resp.Messages, nil
}

// ListMessages returns one page of a room's history.
func (a *ChatAdapter) ListMessages(ctx context.Context, room string, page, limit int) ([]domain.Message, error) {
	req := ListMessagesRequest{Room: room, Page: page, Limit: limit}
	var resp ListMessagesResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceListMessages,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("list-messages request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return resp.Messages, nil
}

// EditMessage replaces the text of an owned message.
func (a *ChatAdapter) EditMessage(ctx context.Context, messageID, userID, text string) (*domain.Message, error) {
	req := EditMessageRequest{MessageID: messageID, UserID: userID, Text: text}
	var resp EditMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceEditMessage,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("edit-message request failed: %w", err)
	}
	if resp.Error != "" {
		return nil, errorFromCode(resp.Code, resp.Error)
	}
	return resp.Message, nil
}

// DeleteMessage removes an owned message and returns its room tag.
func (a *ChatAdapter) DeleteMessage(ctx context.Context, messageID, userID string) (string, error) {
	req := DeleteMessageRequest{MessageID: messageID, UserID: userID}
	var resp DeleteMessageResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceDeleteMessage,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return "", fmt.Errorf("delete-message request failed: %w", err)
	}
	if resp.Error != "" {
		return "", errorFromCode(resp.Code, resp.Error)
	}
	return resp.Room, nil
}

// RelayTyping relays a typing indicator. Delivery is best-effort.
func (a *ChatAdapter) RelayTyping(ctx context.Context, room, username string, isTyping bool, senderClientID string) error {
	req := RelayTypingRequest{Room: room, Username: username, IsTyping: isTyping, SenderClientID: senderClientID}
	var resp RelayTypingResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, ServiceRelayTyping,
		json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return fmt.Errorf("relay-typing request failed: %w", err)
	}
	if resp.Error != "" {
		return errorFromCode(resp.Code, resp.Error)
	}
	return nil
}
