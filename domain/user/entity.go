package user

import "time"

// User represents a registered account.
type User struct {
	ID           string  `gorm:"primaryKey;type:text"`
	Username     string  `gorm:"uniqueIndex;not null;type:text"`
	Email        string  `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string  `gorm:"not null;type:text"`
	AvatarURL    *string `gorm:"type:text"`
	Verified     bool    `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Claims is the verified identity extracted from an access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
