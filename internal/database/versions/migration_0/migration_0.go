package migration_0

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Frozen copies of the first released schema. Later migrations alter these
// tables, so they must not track the live models in the database package.

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:80;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`

	Sessions []Session `gorm:"foreignKey:UserID"`
}

type Session struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;index"`
	Name      string    `gorm:"size:100;not null"`
	CreatedAt time.Time `gorm:"not null"`

	Messages []Message `gorm:"foreignKey:SessionID"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"not null;index"`
	Text      string    `gorm:"type:text;not null"`
	IsUser    bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Session{}, &Message{}); err != nil {
		return fmt.Errorf("initial migration failed: %w", err)
	}
	return nil
}
