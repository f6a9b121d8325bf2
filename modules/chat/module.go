package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/example/realtime-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	domain "github.com/example/realtime-chat/domain/chat"
)

// ServiceRelayTyping relays a typing indicator without persistence.
const ServiceRelayTyping = "relay-typing"

// Module owns the message store and publishes chat events after successful
// persistence. A failed store operation never reaches the event bus.
type Module struct {
	db       *gorm.DB
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
	dbPath   string
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new chat module.
func NewModule(moduleLogger types.Logger) *Module {
	dbPath := os.Getenv("CHAT_DB_PATH")
	if dbPath == "" {
		dbPath = "chat.db"
	}
	return &Module{
		dbPath: dbPath,
		logger: moduleLogger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "chat"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.MessageSentV1.ToBase(),
		events.MessageEditedV1.ToBase(),
		events.MessageDeletedV1.ToBase(),
		events.TypingV1.ToBase(),
	}
}

// Start opens the message database and migrates the schema.
func (m *Module) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewService(NewMessageRepository(db))
	m.logger.Info("Chat module started", "database", m.dbPath)
	return nil
}

// Stop closes the database.
func (m *Module) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Chat module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.dbPath},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	register := func(name string, err error) error {
		if err != nil {
			return fmt.Errorf("failed to register %s service: %w", name, err)
		}
		return nil
	}

	if err := register(ServiceSendMessage, helper.RegisterTypedRequestReplyService(
		container, ServiceSendMessage, json.Unmarshal, json.Marshal, m.handleSend)); err != nil {
		return err
	}
	if err := register(ServiceGetHistory, helper.RegisterTypedRequestReplyService(
		container, ServiceGetHistory, json.Unmarshal, json.Marshal, m.handleHistory)); err != nil {
		return err
	}
	if err := register(ServiceListMessages, helper.RegisterTypedRequestReplyService(
		container, ServiceListMessages, json.Unmarshal, json.Marshal, m.handleList)); err != nil {
		return err
	}
	if err := register(ServiceEditMessage, helper.RegisterTypedRequestReplyService(
		container, ServiceEditMessage, json.Unmarshal, json.Marshal, m.handleEdit)); err != nil {
		return err
	}
	if err := register(ServiceDeleteMessage, helper.RegisterTypedRequestReplyService(
		container, ServiceDeleteMessage, json.Unmarshal, json.Marshal, m.handleDelete)); err != nil {
		return err
	}
	if err := register(ServiceRelayTyping, helper.RegisterTypedRequestReplyService(
		container, ServiceRelayTyping, json.Unmarshal, json.Marshal, m.handleTyping)); err != nil {
		return err
	}

	m.logger.Info("Registered chat services",
		"services", "send-message, get-history, list-messages, edit-message, delete-message, relay-typing")
	return nil
}

// handleSend persists a message and, only on success, publishes MessageSent.
func (m *Module) handleSend(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (SendMessageResponse, error) {
	msg, err := m.service.Send(ctx, req.Room, req.Username, req.UserID, req.Text)
	if err != nil {
		return SendMessageResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}

	if err := events.MessageSentV1.Publish(m.eventBus, events.MessageSentEvent{Message: *msg}, nil); err != nil {
		m.logger.Warn("Failed to publish MessageSent event", "error", err, "messageID", msg.ID)
	}
	return SendMessageResponse{Message: msg}, nil
}

func (m *Module) handleHistory(ctx context.Context, req GetHistoryRequest, _ *mono.Msg) (GetHistoryResponse, error) {
	messages, err := m.service.Recent(ctx, req.Room, req.Limit)
	if err != nil {
		return GetHistoryResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return GetHistoryResponse{Messages: messages}, nil
}

func (m *Module) handleList(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	messages, err := m.service.Page(ctx, req.Room, req.Page, req.Limit)
	if err != nil {
		return ListMessagesResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}
	return ListMessagesResponse{Messages: messages}, nil
}

// handleEdit mutates an owned message and publishes MessageEdited with the
// full updated object.
func (m *Module) handleEdit(ctx context.Context, req EditMessageRequest, _ *mono.Msg) (EditMessageResponse, error) {
	msg, err := m.service.Edit(ctx, req.MessageID, req.UserID, req.Text)
	if err != nil {
		return EditMessageResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}

	if err := events.MessageEditedV1.Publish(m.eventBus, events.MessageEditedEvent{Message: *msg}, nil); err != nil {
		m.logger.Warn("Failed to publish MessageEdited event", "error", err, "messageID", msg.ID)
	}
	return EditMessageResponse{Message: msg}, nil
}

func (m *Module) handleDelete(ctx context.Context, req DeleteMessageRequest, _ *mono.Msg) (DeleteMessageResponse, error) {
	msg, err := m.service.Delete(ctx, req.MessageID, req.UserID)
	if err != nil {
		return DeleteMessageResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}

	event := events.MessageDeletedEvent{MessageID: msg.ID, Room: msg.Room}
	if err := events.MessageDeletedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish MessageDeleted event", "error", err, "messageID", msg.ID)
	}
	return DeleteMessageResponse{MessageID: msg.ID, Room: msg.Room}, nil
}

// handleTyping relays a typing indicator through the event bus. Best-effort,
// nothing is stored.
func (m *Module) handleTyping(_ context.Context, req RelayTypingRequest, _ *mono.Msg) (RelayTypingResponse, error) {
	room, err := NormalizeRoom(req.Room)
	if err != nil {
		return RelayTypingResponse{Error: err.Error(), Code: codeFor(err)}, nil
	}

	event := events.TypingEvent{
		Room:           room,
		Username:       req.Username,
		IsTyping:       req.IsTyping,
		SenderClientID: req.SenderClientID,
	}
	if err := events.TypingV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish Typing event", "error", err, "room", room)
	}
	return RelayTypingResponse{}, nil
}

// codeFor maps domain errors onto wire codes. Unknown errors count as store
// failures and surface as a transport-level error string without a code.
func codeFor(err error) string {
	switch {
	case errors.Is(err, ErrMessageNotFound):
		return CodeNotFound
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong), errors.Is(err, ErrRoomInvalid):
		return CodeValidation
	default:
		return ""
	}
}
