package database

import (
	"time"

	"gorm.io/datatypes"
)

const DefaultSessionName = "Current session"

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:80;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`

	Sessions []Session `gorm:"foreignKey:UserID"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index;index:idx_sessions_user_created,priority:1"`
	Name      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_sessions_user_created,priority:2"`

	User     *User     `gorm:"foreignKey:UserID"`
	Messages []Message `gorm:"foreignKey:SessionID"`
}

type Message struct {
	ID        uint           `gorm:"primaryKey"`
	SessionID uint           `gorm:"not null;index"`
	Text      string         `gorm:"type:text;not null"`
	IsUser    bool           `gorm:"not null;default:false"`
	CreatedAt time.Time      `gorm:"not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"` // {"rule": "greeting"} on bot replies

	Session *Session `gorm:"foreignKey:SessionID"`
}

// SessionSummary is a session row with the number of messages in it.
type SessionSummary struct {
	ID           uint
	UserID       uint
	Name         string
	CreatedAt    time.Time
	MessageCount int64
}
