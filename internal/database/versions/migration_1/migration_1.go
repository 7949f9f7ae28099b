package migration_1

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Message struct {
	Metadata datatypes.JSON `gorm:"type:jsonb"`
}

func Migration(db *gorm.DB) error {
	if db.Migrator().HasColumn(&Message{}, "metadata") {
		return nil
	}
	if err := db.Migrator().AddColumn(&Message{}, "Metadata"); err != nil {
		return fmt.Errorf("error adding metadata column: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&Message{}, "Metadata"); err != nil {
		return fmt.Errorf("error dropping metadata column: %w", err)
	}
	return nil
}
