package chat

import "time"

// DefaultRoom is the room a message or join falls back to when no tag is given.
const DefaultRoom = "global"

// Message represents a persisted chat message. The author identity (UserID)
// is fixed at creation; only Text, Edited and EditedAt mutate afterwards.
type Message struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	Room      string     `gorm:"index;not null;default:global" json:"room"`
	Username  string     `gorm:"not null" json:"username"`
	UserID    *string    `gorm:"type:text" json:"userId"`
	Text      string     `gorm:"not null" json:"text"`
	CreatedAt time.Time  `json:"createdAt"`
	Edited    bool       `gorm:"not null;default:false" json:"edited"`
	EditedAt  *time.Time `json:"editedAt,omitempty"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// OwnedBy reports whether the message belongs to the given user identity.
// Anonymous messages (no author identity) are owned by nobody.
func (m *Message) OwnedBy(userID string) bool {
	return m.UserID != nil && *m.UserID == userID
}
