package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"lilith-backend/internal/core"
	"lilith-backend/internal/database"

	"gorm.io/gorm"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 80
	MinPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	MaxPasswordBytes = 72
)

var errInvalidCredentials = core.Authf("invalid username or password")

type Store struct {
	db     *gorm.DB
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewStore(db *gorm.DB, hasher PasswordHasher) *Store {
	return &Store{db: db, hasher: hasher}
}

func ValidateCredentials(username, password string) error {
	if username == "" || password == "" {
		return core.Validationf("missing credentials: username and password are required")
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return core.Validationf("username must be at least %d characters", MinUsernameLength)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return core.Validationf("username must be at most %d characters", MaxUsernameLength)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return core.Validationf("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return core.Validationf("password must be at most %d bytes", MaxPasswordBytes)
	}
	return nil
}

func (s *Store) Register(ctx context.Context, username, password string) (database.User, error) {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)

	if err := ValidateCredentials(username, password); err != nil {
		return database.User{}, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return database.User{}, core.Internal("error hashing password", err)
	}

	user := database.User{Username: username, PasswordHash: hash}

	err = s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		var count int64
		if err := txn.Model(&database.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return core.Internal("error checking for existing user", err)
		}
		if count > 0 {
			return core.Conflictf("user already exists")
		}

		if err := txn.Create(&user).Error; err != nil {
			if database.IsDuplicateKey(err) {
				return core.Conflictf("user already exists")
			}
			return core.Internal("error creating user", err)
		}
		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	slog.Info("registered user", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Verify checks a username/password pair. A missing user and a wrong password
// produce the same error.
func (s *Store) Verify(ctx context.Context, username, password string) (database.User, error) {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		return database.User{}, core.Validationf("missing credentials: username and password are required")
	}

	user, err := s.FindByUsername(ctx, username)
	if err != nil {
		return database.User{}, err
	}

	if user == nil {
		// keep the timing of unknown usernames close to that of wrong passwords
		s.hasher.Compare(s.getDummyHash(), password)
		return database.User{}, errInvalidCredentials
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return database.User{}, errInvalidCredentials
	}

	return *user, nil
}

func (s *Store) getDummyHash() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("lilith-dummy-password")
		if err != nil {
			slog.Error("error creating dummy password hash", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*database.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

func (s *Store) FindByID(ctx context.Context, id uint) (*database.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) findOne(ctx context.Context, query string, args ...any) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, core.Internal("error looking up user", err)
	}
	return &user, nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.User{}).Count(&count).Error; err != nil {
		return 0, core.Internal("error counting users", err)
	}
	return count, nil
}

// Delete removes a user together with all of the user's sessions and
// messages. It is not exposed over HTTP.
func (s *Store) Delete(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		return database.DeleteUserCascade(ctx, txn, userID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NotFoundf("user not found")
		}
		return core.Internal("error deleting user", err)
	}
	slog.Info("deleted user", "user_id", userID)
	return nil
}
