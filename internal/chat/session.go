package chat

import (
	"context"
	"log/slog"
	"strings"

	"lilith-backend/internal/core"
	"lilith-backend/internal/database"
)

type ChatResult struct {
	SessionID uint
	Reply     string
	Rule      string
}

// Chat stores the user's message and the bot reply in one transaction. With
// a nil sessionID the user's current session is used, created if needed.
func (manager *SessionManager) Chat(ctx context.Context, user database.User, sessionID *uint, text string) (ChatResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatResult{}, core.Validationf("message is empty")
	}

	var result ChatResult
	err := manager.store.Transaction(ctx, func(store *Store) error {
		var session database.Session
		var err error
		if sessionID != nil {
			session, err = store.GetSessionForUser(ctx, *sessionID, user.ID)
		} else {
			session, _, err = store.GetOrCreateCurrentSession(ctx, user.ID)
		}
		if err != nil {
			return err
		}

		if _, err := store.AppendMessage(ctx, session.ID, text, true, nil); err != nil {
			return err
		}

		reply := manager.responder.Respond(text, user.Username)

		if _, err := store.AppendMessage(ctx, session.ID, reply.Text, false, map[string]string{"rule": reply.Rule}); err != nil {
			return err
		}

		result = ChatResult{SessionID: session.ID, Reply: reply.Text, Rule: reply.Rule}
		return nil
	})
	if err != nil {
		return ChatResult{}, err
	}

	slog.Info("chat exchange stored", "user_id", user.ID, "session_id", result.SessionID, "rule", result.Rule)
	return result, nil
}

// CurrentSession returns the user's newest session with its messages, creating
// an empty session if the user has none.
func (manager *SessionManager) CurrentSession(ctx context.Context, user database.User) (database.Session, []database.Message, error) {
	var session database.Session
	var messages []database.Message
	err := manager.store.Transaction(ctx, func(store *Store) error {
		var err error
		session, _, err = store.GetOrCreateCurrentSession(ctx, user.ID)
		if err != nil {
			return err
		}
		messages, err = store.ListMessages(ctx, session.ID)
		return err
	})
	if err != nil {
		return database.Session{}, nil, err
	}
	return session, messages, nil
}

func (manager *SessionManager) SessionHistory(ctx context.Context, user database.User, sessionID uint) (database.Session, []database.Message, error) {
	session, err := manager.store.GetSessionForUser(ctx, sessionID, user.ID)
	if err != nil {
		return database.Session{}, nil, err
	}
	messages, err := manager.store.ListMessages(ctx, session.ID)
	if err != nil {
		return database.Session{}, nil, err
	}
	return session, messages, nil
}
