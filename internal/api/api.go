package api

import (
	"log/slog"
	"net/http"

	"lilith-backend/internal/auth"
	"lilith-backend/internal/users"
	"lilith-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

type AuthService struct {
	users  *users.Store
	tokens *auth.TokenService
}

func NewAuthService(users *users.Store, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) AddRoutes(r chi.Router) {
	r.Get("/", RestHandler(s.Health))
	r.Post("/register", RestHandler(s.Register))
	r.Post("/login", RestHandler(s.Login))
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(s.tokens))
		r.Get("/api/me", RestHandler(s.Me))
	})
}

func (s *AuthService) Health(r *http.Request) (any, error) {
	return api.HealthResponse{Status: "ok", Message: "Lilith backend is running"}, nil
}

func (s *AuthService) Register(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RegisterRequest](r)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.Register(r.Context(), req.Username, req.Password); err != nil {
		return nil, err
	}

	return WithStatus(http.StatusCreated, api.MessageResponse{Message: "User registered successfully"}), nil
}

func (s *AuthService) Login(r *http.Request) (any, error) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Verify(r.Context(), req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", "user_id", user.ID)

	return api.LoginResponse{
		AccessToken: token.Value,
		TokenType:   "bearer",
		ExpiresAt:   token.ExpiresAt,
		Message:     "Login successful",
	}, nil
}

func (s *AuthService) Me(r *http.Request) (any, error) {
	user, err := currentUser(r, s.users)
	if err != nil {
		return nil, err
	}

	return api.MeResponse{ID: user.ID, Username: user.Username}, nil
}
