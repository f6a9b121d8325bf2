package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/example/realtime-chat/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module consumes chat events and fans them out to WebSocket clients. Both
// socket-originated and REST-originated mutations pass through here, so every
// connected client converges on the same state.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start launches the hub loop.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts the hub down and closes remaining connections.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to the chat events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageSentV1, m.handleMessageSent, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageSent consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageEditedV1, m.handleMessageEdited, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageEdited consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageDeletedV1, m.handleMessageDeleted, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageDeleted consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.TypingV1, m.handleTyping, m,
	); err != nil {
		return fmt.Errorf("failed to register Typing consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: MessageSent, MessageEdited, MessageDeleted, Typing")
	return nil
}

func (m *Module) handleMessageSent(_ context.Context, event events.MessageSentEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.Message.Room, "message", event.Message)
	return nil
}

func (m *Module) handleMessageEdited(_ context.Context, event events.MessageEditedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.Message.Room, "messageEdited", event.Message)
	return nil
}

func (m *Module) handleMessageDeleted(_ context.Context, event events.MessageDeletedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.Room, "messageDeleted", map[string]string{"id": event.MessageID})
	return nil
}

// handleTyping relays the indicator to everyone in the room except the
// sender's own connection.
func (m *Module) handleTyping(_ context.Context, event events.TypingEvent, _ *mono.Msg) error {
	payload := map[string]any{
		"room":     event.Room,
		"username": event.Username,
		"isTyping": event.IsTyping,
	}
	m.hub.BroadcastExcept(event.Room, "typing", payload, event.SenderClientID)
	return nil
}

// GetHub returns the hub for the API module to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}
