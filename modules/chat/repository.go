package chat

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"gorm.io/gorm"
)

// MessageRepository handles message persistence using GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append saves a new message.
func (r *MessageRepository) Append(msg *domain.Message) error {
	if err := r.db.Create(msg).Error; err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest messages for a room, ordered
// oldest-first.
func (r *MessageRepository) Recent(room string, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.
		Where("room = ?", room).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	// Query returns newest-first; reverse for replay order.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Page returns one page of a room's history, oldest-first within the page
// window. Page 1 holds the newest messages.
func (r *MessageRepository) Page(room string, page, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.
		Where("room = ?", room).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load page: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// FindByID retrieves a message by its id.
func (r *MessageRepository) FindByID(id string) (*domain.Message, error) {
	var msg domain.Message
	if err := r.db.First(&msg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to find message: %w", err)
	}
	return &msg, nil
}

// Update sets new text on a message and marks it edited. Author identity,
// room and creation time are never touched.
func (r *MessageRepository) Update(id, text string, editedAt time.Time) error {
	result := r.db.Model(&domain.Message{}).Where("id = ?", id).Updates(map[string]any{
		"text":      text,
		"edited":    true,
		"edited_at": editedAt,
	})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// Remove deletes a message by id.
func (r *MessageRepository) Remove(id string) error {
	result := r.db.Delete(&domain.Message{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
