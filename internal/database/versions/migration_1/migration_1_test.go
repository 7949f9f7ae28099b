package migration_1

import (
	"testing"
	"time"

	"lilith-backend/internal/database/versions/migration_0"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, migration_0.Migration(db))

	return db
}

func TestMigration_AddsMetadata(t *testing.T) {
	db := setupTestDB(t)

	user := migration_0.User{Username: "alice", PasswordHash: "x", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&user).Error)
	session := migration_0.Session{UserID: user.ID, Name: "Current session", CreatedAt: time.Now()}
	require.NoError(t, db.Create(&session).Error)
	require.NoError(t, db.Create(&migration_0.Message{SessionID: session.ID, Text: "hello", IsUser: true, CreatedAt: time.Now()}).Error)

	assert.False(t, db.Migrator().HasColumn(&Message{}, "metadata"))

	require.NoError(t, Migration(db))
	assert.True(t, db.Migrator().HasColumn(&Message{}, "metadata"))

	// existing rows survive and have no metadata
	var rows []struct {
		Text     string
		Metadata *string
	}
	require.NoError(t, db.Table("messages").Select("text, metadata").Scan(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "hello", rows[0].Text)
	assert.Nil(t, rows[0].Metadata)

	// running twice is harmless
	require.NoError(t, Migration(db))
}

func TestRollback_DropsMetadata(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Migration(db))
	require.NoError(t, Rollback(db))
	assert.False(t, db.Migrator().HasColumn(&Message{}, "metadata"))
}
