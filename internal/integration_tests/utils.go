package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lilith-backend/internal/api"
	"lilith-backend/internal/auth"
	"lilith-backend/internal/chat"
	"lilith-backend/internal/database"
	"lilith-backend/internal/users"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func setupDatabase(t *testing.T) *gorm.DB {
	ctx := context.Background()
	db, err := database.NewDatabase(setupPostgresContainer(t, ctx))
	require.NoError(t, err)
	return db
}

func setupRouter(t *testing.T, db *gorm.DB) http.Handler {
	tokens, err := auth.NewTokenService("integration-secret", time.Hour)
	require.NoError(t, err)
	userStore := users.NewStore(db, users.NewBcryptHasher(bcrypt.MinCost))

	r := chi.NewRouter()
	r.Use(api.PreflightOK)
	api.NewAuthService(userStore, tokens).AddRoutes(r)
	api.NewChatService(userStore, tokens, chat.NewSessionManager(db, nil)).AddRoutes(r)
	return r
}

func httpRequest(api http.Handler, method, endpoint, token string, payload any, expected int, dest any) error {
	var body io.Reader
	if payload != nil {
		requestBody, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(requestBody)
	}

	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, req)

	if rr.Code != expected {
		return fmt.Errorf("expected status code %d, got %d: %v", expected, rr.Code, rr.Body.String())
	}

	if dest != nil {
		if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
