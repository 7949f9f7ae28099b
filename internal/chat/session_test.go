package chat_test

import (
	"context"
	"errors"
	"testing"

	"lilith-backend/internal/chat"
	"lilith-backend/internal/core"
	"lilith-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB) (int64, int64) {
	var sessions, messages int64
	require.NoError(t, db.Model(&database.Session{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&database.Message{}).Count(&messages).Error)
	return sessions, messages
}

func TestChatCreatesCurrentSession(t *testing.T) {
	db, users := createDB(t, "alice")
	manager := chat.NewSessionManager(db, nil)
	ctx := context.Background()

	result, err := manager.Chat(ctx, users[0], nil, "  Hello  ")
	require.NoError(t, err)
	assert.NotZero(t, result.SessionID)
	assert.Equal(t, "greeting", result.Rule)
	assert.Equal(t, "Лилит: Привет, alice! Что привело тебя ко мне сегодня?", result.Reply)

	session, messages, err := manager.CurrentSession(ctx, users[0])
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, session.ID)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hello", messages[0].Text)
	assert.True(t, messages[0].IsUser)
	assert.Equal(t, result.Reply, messages[1].Text)
	assert.False(t, messages[1].IsUser)
	assert.JSONEq(t, `{"rule":"greeting"}`, string(messages[1].Metadata))

	second, err := manager.Chat(ctx, users[0], nil, "Why is the sky blue?")
	require.NoError(t, err)
	assert.Equal(t, result.SessionID, second.SessionID)
	assert.Equal(t, "question", second.Rule)

	sessions, total := countRows(t, db)
	assert.Equal(t, int64(1), sessions)
	assert.Equal(t, int64(4), total)
}

func TestChatExplicitSession(t *testing.T) {
	db, users := createDB(t, "alice", "bob")
	manager := chat.NewSessionManager(db, nil)
	ctx := context.Background()

	current, _, err := manager.Store().GetOrCreateCurrentSession(ctx, users[0].ID)
	require.NoError(t, err)
	older := current.ID
	_, err = manager.Store().CreateSession(ctx, users[0].ID, "newer")
	require.NoError(t, err)

	result, err := manager.Chat(ctx, users[0], &older, "just chatting")
	require.NoError(t, err)
	assert.Equal(t, older, result.SessionID)
	assert.Equal(t, "generic", result.Rule)

	_, messages, err := manager.SessionHistory(ctx, users[0], older)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestChatForeignSession(t *testing.T) {
	db, users := createDB(t, "alice", "bob")
	manager := chat.NewSessionManager(db, nil)
	ctx := context.Background()

	result, err := manager.Chat(ctx, users[0], nil, "hello")
	require.NoError(t, err)
	_, before := countRows(t, db)

	_, err = manager.Chat(ctx, users[1], &result.SessionID, "hello")
	assert.True(t, errors.Is(err, core.ErrForbidden))

	missing := result.SessionID + 100
	_, err = manager.Chat(ctx, users[1], &missing, "hello")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	_, after := countRows(t, db)
	assert.Equal(t, before, after)

	_, _, err = manager.SessionHistory(ctx, users[1], result.SessionID)
	assert.True(t, errors.Is(err, core.ErrForbidden))
}

func TestChatEmptyMessage(t *testing.T) {
	db, users := createDB(t, "alice")
	manager := chat.NewSessionManager(db, nil)

	_, err := manager.Chat(context.Background(), users[0], nil, " \t\n ")
	assert.True(t, errors.Is(err, core.ErrValidation))

	sessions, messages := countRows(t, db)
	assert.Equal(t, int64(0), sessions)
	assert.Equal(t, int64(0), messages)
}

func TestChatRollsBackOnFailure(t *testing.T) {
	db, users := createDB(t, "alice")

	// the reply is blank after trimming, so storing it fails
	responder, err := chat.ParseResponderRules([]byte("fallback:\n  template: \"   \"\n"))
	require.NoError(t, err)
	manager := chat.NewSessionManager(db, responder)

	_, err = manager.Chat(context.Background(), users[0], nil, "hello")
	assert.Error(t, err)

	sessions, messages := countRows(t, db)
	assert.Equal(t, int64(0), sessions)
	assert.Equal(t, int64(0), messages)
}

func TestCurrentSessionFreshUser(t *testing.T) {
	db, users := createDB(t, "alice")
	manager := chat.NewSessionManager(db, nil)

	session, messages, err := manager.CurrentSession(context.Background(), users[0])
	require.NoError(t, err)
	assert.Equal(t, database.DefaultSessionName, session.Name)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}
