package api

import (
	"context"
	"net/http"
	"strings"

	"lilith-backend/internal/auth"
	"lilith-backend/internal/core"
	"lilith-backend/internal/database"
	"lilith-backend/internal/users"
)

type contextKey string

const usernameKey contextKey = "username"

// BearerAuth rejects requests without a valid "Authorization: Bearer" token and
// stores the token subject in the request context.
func BearerAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
			if !found || !strings.EqualFold(scheme, "Bearer") {
				writeError(w, core.Authf("missing or malformed authorization header"))
				return
			}

			username, err := tokens.Validate(strings.TrimSpace(value))
			if err != nil {
				writeError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
		})
	}
}

func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok && username != ""
}

// PreflightOK answers any OPTIONS request that reaches it with an empty 200.
func PreflightOK(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUser loads the account behind the token. A token can outlive its
// user, which is reported as not found.
func currentUser(r *http.Request, store *users.Store) (database.User, error) {
	username, ok := UsernameFromContext(r.Context())
	if !ok {
		return database.User{}, core.Authf("missing token")
	}

	user, err := store.FindByUsername(r.Context(), username)
	if err != nil {
		return database.User{}, err
	}
	if user == nil {
		return database.User{}, core.NotFoundf("user not found")
	}
	return *user, nil
}
