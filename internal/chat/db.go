package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"lilith-backend/internal/core"
	"lilith-backend/internal/database"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxSessionNameLength = 100

// Store persists sessions and their messages. A Store handed to the callback
// of Transaction is bound to that transaction.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(store *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		return fn(&Store{db: txn})
	})
}

func (s *Store) GetOrCreateCurrentSession(ctx context.Context, userID uint) (database.Session, bool, error) {
	var session database.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&session).Error
	if err == nil {
		return session, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return database.Session{}, false, core.Internal("error looking up current session", err)
	}

	// Two concurrent requests can both get here and create a session each.
	session, err = s.CreateSession(ctx, userID, "")
	if err != nil {
		return database.Session{}, false, err
	}
	return session, true, nil
}

func normalizeSessionName(name string, allowBlank bool) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		if allowBlank {
			return database.DefaultSessionName, nil
		}
		return "", core.Validationf("session name must not be empty")
	}
	if utf8.RuneCountInString(name) > MaxSessionNameLength {
		return "", core.Validationf("session name must be at most %d characters", MaxSessionNameLength)
	}
	return name, nil
}

// CreateSession starts a new session for the user. A blank name gets the
// default session name.
func (s *Store) CreateSession(ctx context.Context, userID uint, name string) (database.Session, error) {
	name, err := normalizeSessionName(name, true)
	if err != nil {
		return database.Session{}, err
	}

	session := database.Session{UserID: userID, Name: name}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return database.Session{}, core.Internal("error creating session", err)
	}
	return session, nil
}

// GetSessionForUser returns the session if it exists and is owned by userID.
func (s *Store) GetSessionForUser(ctx context.Context, sessionID, userID uint) (database.Session, error) {
	var session database.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.Session{}, core.NotFoundf("session not found")
		}
		return database.Session{}, core.Internal("error looking up session", err)
	}
	if session.UserID != userID {
		return database.Session{}, core.Forbiddenf("session belongs to another user")
	}
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, userID uint, limit, offset int) ([]database.SessionSummary, error) {
	summaries := make([]database.SessionSummary, 0)
	err := s.db.WithContext(ctx).
		Table("sessions").
		Select("sessions.id, sessions.user_id, sessions.name, sessions.created_at, " +
			"(SELECT COUNT(*) FROM messages WHERE messages.session_id = sessions.id) AS message_count").
		Where("sessions.user_id = ?", userID).
		Order("sessions.created_at DESC").
		Order("sessions.id DESC").
		Limit(limit).
		Offset(offset).
		Scan(&summaries).Error
	if err != nil {
		return nil, core.Internal("error listing sessions", err)
	}
	return summaries, nil
}

func (s *Store) CountMessages(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.Message{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, core.Internal("error counting messages", err)
	}
	return count, nil
}

func (s *Store) RenameSession(ctx context.Context, sessionID, userID uint, name string) (database.Session, error) {
	name, err := normalizeSessionName(name, false)
	if err != nil {
		return database.Session{}, err
	}

	session, err := s.GetSessionForUser(ctx, sessionID, userID)
	if err != nil {
		return database.Session{}, err
	}

	if err := s.db.WithContext(ctx).Model(&session).Update("name", name).Error; err != nil {
		return database.Session{}, core.Internal("error renaming session", err)
	}
	session.Name = name
	return session, nil
}

// DeleteSession removes a session owned by userID together with its messages.
func (s *Store) DeleteSession(ctx context.Context, sessionID, userID uint) error {
	return s.Transaction(ctx, func(store *Store) error {
		if _, err := store.GetSessionForUser(ctx, sessionID, userID); err != nil {
			return err
		}
		if err := database.DeleteSessionCascade(ctx, store.db, sessionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return core.NotFoundf("session not found")
			}
			return core.Internal("error deleting session", err)
		}
		return nil
	})
}

func (s *Store) AppendMessage(ctx context.Context, sessionID uint, text string, isUser bool, metadata map[string]string) (database.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return database.Message{}, core.Validationf("message is empty")
	}

	var metadataJSON datatypes.JSON = nil
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return database.Message{}, core.Internal("could not marshal message metadata", err)
		}
		metadataJSON = datatypes.JSON(b)
	}

	message := database.Message{
		SessionID: sessionID,
		Text:      text,
		IsUser:    isUser,
		Metadata:  metadataJSON,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return database.Message{}, core.Internal("error saving message", err)
	}
	return message, nil
}

// ListMessages returns the messages of a session oldest first.
func (s *Store) ListMessages(ctx context.Context, sessionID uint) ([]database.Message, error) {
	messages := make([]database.Message, 0)
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, core.Internal("error loading messages", err)
	}
	return messages, nil
}
