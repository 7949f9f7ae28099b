package migration_2

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const indexName = "idx_sessions_user_created"

// Session carries only the columns of the composite index used to find a
// user's newest session.
type Session struct {
	UserID    uint      `gorm:"index:idx_sessions_user_created,priority:1"`
	CreatedAt time.Time `gorm:"index:idx_sessions_user_created,priority:2"`
}

func Migration(db *gorm.DB) error {
	if db.Migrator().HasIndex(&Session{}, indexName) {
		return nil
	}
	if err := db.Migrator().CreateIndex(&Session{}, indexName); err != nil {
		return fmt.Errorf("error creating %s: %w", indexName, err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Session{}, indexName); err != nil {
		return fmt.Errorf("error dropping %s: %w", indexName, err)
	}
	return nil
}
