package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

// DeleteSessionCascade removes a session and its messages. Callers pass a
// transaction so that both deletes commit together.
func DeleteSessionCascade(ctx context.Context, txn *gorm.DB, sessionID uint) error {
	if err := txn.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Message{}).Error; err != nil {
		slog.Error("error deleting session messages", "session_id", sessionID, "error", err)
		return fmt.Errorf("error deleting messages of session %d: %w", sessionID, err)
	}

	res := txn.WithContext(ctx).Delete(&Session{}, sessionID)
	if res.Error != nil {
		slog.Error("error deleting session", "session_id", sessionID, "error", res.Error)
		return fmt.Errorf("error deleting session %d: %w", sessionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteUserCascade removes a user, the user's sessions and every message in
// them, in that order.
func DeleteUserCascade(ctx context.Context, txn *gorm.DB, userID uint) error {
	sessionIDs := txn.WithContext(ctx).Model(&Session{}).Select("id").Where("user_id = ?", userID)

	if err := txn.WithContext(ctx).Where("session_id IN (?)", sessionIDs).Delete(&Message{}).Error; err != nil {
		slog.Error("error deleting user messages", "user_id", userID, "error", err)
		return fmt.Errorf("error deleting messages of user %d: %w", userID, err)
	}

	if err := txn.WithContext(ctx).Where("user_id = ?", userID).Delete(&Session{}).Error; err != nil {
		slog.Error("error deleting user sessions", "user_id", userID, "error", err)
		return fmt.Errorf("error deleting sessions of user %d: %w", userID, err)
	}

	res := txn.WithContext(ctx).Delete(&User{}, userID)
	if res.Error != nil {
		slog.Error("error deleting user", "user_id", userID, "error", res.Error)
		return fmt.Errorf("error deleting user %d: %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
