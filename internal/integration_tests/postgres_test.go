package integrationtests

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"lilith-backend/internal/chat"
	"lilith-backend/internal/core"
	"lilith-backend/internal/database"
	"lilith-backend/internal/users"
	"lilith-backend/pkg/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPostgresChatFlow(t *testing.T) {
	db := setupDatabase(t)
	router := setupRouter(t, db)

	for _, username := range []string{"alice", "bob"} {
		require.NoError(t, httpRequest(router, http.MethodPost, "/register", "", api.RegisterRequest{Username: username, Password: "secret1"}, http.StatusCreated, nil))
	}
	require.NoError(t, httpRequest(router, http.MethodPost, "/register", "", api.RegisterRequest{Username: "alice", Password: "secret1"}, http.StatusBadRequest, nil))

	var alice, bob api.LoginResponse
	require.NoError(t, httpRequest(router, http.MethodPost, "/login", "", api.LoginRequest{Username: "alice", Password: "secret1"}, http.StatusOK, &alice))
	require.NoError(t, httpRequest(router, http.MethodPost, "/login", "", api.LoginRequest{Username: "bob", Password: "secret1"}, http.StatusOK, &bob))

	var reply api.ChatResponse
	require.NoError(t, httpRequest(router, http.MethodPost, "/api/chat", alice.AccessToken, api.ChatRequest{Message: "Привет"}, http.StatusOK, &reply))
	assert.Contains(t, reply.Response, "alice")

	var current api.SessionResponse
	require.NoError(t, httpRequest(router, http.MethodGet, "/api/sessions/current", alice.AccessToken, nil, http.StatusOK, &current))
	assert.Equal(t, reply.SessionID, current.SessionID)
	require.Len(t, current.Messages, 2)
	assert.True(t, current.Messages[0].IsUser)
	assert.False(t, current.Messages[1].IsUser)

	foreign := map[string]any{"message": "hi", "sessionId": fmt.Sprint(reply.SessionID)}
	require.NoError(t, httpRequest(router, http.MethodPost, "/api/chat", bob.AccessToken, foreign, http.StatusNotFound, nil))

	var listed api.ListSessionsResponse
	require.NoError(t, httpRequest(router, http.MethodGet, "/api/sessions", alice.AccessToken, nil, http.StatusOK, &listed))
	require.Len(t, listed.Sessions, 1)
	assert.Equal(t, int64(2), listed.Sessions[0].MessageCount)

	var metadata string
	require.NoError(t, db.Raw("SELECT metadata->>'rule' FROM messages WHERE is_user = false").Scan(&metadata).Error)
	assert.Equal(t, "greeting", metadata)
}

func TestPostgresCascadesAndConstraints(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	userStore := users.NewStore(db, users.NewBcryptHasher(bcrypt.MinCost))
	manager := chat.NewSessionManager(db, nil)

	alice, err := userStore.Register(ctx, "alice", "secret1")
	require.NoError(t, err)

	_, err = userStore.Register(ctx, "alice", "secret1")
	assert.True(t, errors.Is(err, core.ErrConflict))

	for i := 0; i < 3; i++ {
		_, err := manager.Chat(ctx, alice, nil, "hello?")
		require.NoError(t, err)
	}

	// a session must belong to an existing user
	err = db.Create(&database.Session{UserID: alice.ID + 1000, Name: "orphan"}).Error
	assert.Error(t, err)

	require.NoError(t, userStore.Delete(ctx, alice.ID))

	var sessions, messages int64
	require.NoError(t, db.Model(&database.Session{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&database.Message{}).Count(&messages).Error)
	assert.Equal(t, int64(0), sessions)
	assert.Equal(t, int64(0), messages)
}

func TestPostgresConcurrentRegistration(t *testing.T) {
	db := setupDatabase(t)
	userStore := users.NewStore(db, users.NewBcryptHasher(bcrypt.MinCost))

	const attempts = 8
	errs := make([]error, attempts)

	wg := sync.WaitGroup{}
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = userStore.Register(context.Background(), "racer", "secret1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, errors.Is(err, core.ErrConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
}
