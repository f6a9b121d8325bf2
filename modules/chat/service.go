package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/google/uuid"
)

// Validation constants
const (
	MaxMessageLength  = 5000
	MaxRoomTagLength  = 100
	MaxUsernameLength = 50

	// AnonymousName is used when neither the session nor the payload names
	// the sender.
	AnonymousName = "Anonymous"
)

// Service implements the message store semantics on top of the repository.
type Service struct {
	repo *MessageRepository
}

// NewService creates a new chat service.
func NewService(repo *MessageRepository) *Service {
	return &Service{repo: repo}
}

// NormalizeRoom maps an empty tag to the default room and validates it.
func NormalizeRoom(room string) (string, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return domain.DefaultRoom, nil
	}
	if len(room) > MaxRoomTagLength || !utf8.ValidString(room) {
		return "", ErrRoomInvalid
	}
	return room, nil
}

// Send validates and persists a new message. userID is nil for anonymous
// senders. The message is returned with id and timestamp assigned.
func (s *Service) Send(_ context.Context, room, username string, userID *string, text string) (*domain.Message, error) {
	room, err := NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	username = strings.TrimSpace(username)
	if username == "" {
		username = AnonymousName
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		username = string([]rune(username)[:MaxUsernameLength])
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		Room:      room,
		Username:  username,
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Append(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Recent returns the most recent messages for a room, oldest-first.
func (s *Service) Recent(_ context.Context, room string, limit int) ([]domain.Message, error) {
	room, err := NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.Recent(room, limit)
}

// Page returns one page of a room's history, oldest-first within the page.
func (s *Service) Page(_ context.Context, room string, page, limit int) ([]domain.Message, error) {
	room, err := NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.Page(room, page, limit)
}

// Edit replaces the text of a message owned by userID. The flow is
// lookup -> authorize -> mutate; on success the full updated message is
// returned. Anonymous messages are never editable.
func (s *Service) Edit(_ context.Context, id, userID, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	msg, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !msg.OwnedBy(userID) {
		return nil, ErrForbidden
	}

	now := time.Now()
	if err := s.repo.Update(id, text, now); err != nil {
		return nil, err
	}
	msg.Text = text
	msg.Edited = true
	msg.EditedAt = &now
	return msg, nil
}

// Delete removes a message owned by userID and returns the removed message
// so callers know which room to notify.
func (s *Service) Delete(_ context.Context, id, userID string) (*domain.Message, error) {
	msg, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if !msg.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	if err := s.repo.Remove(id); err != nil {
		return nil, err
	}
	return msg, nil
}
