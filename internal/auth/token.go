package auth

import (
	"errors"
	"fmt"
	"time"

	"lilith-backend/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

type Token struct {
	Value     string
	ExpiresAt time.Time
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*TokenService)

// WithClock replaces the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

func NewTokenService(secret string, ttl time.Duration, opts ...Option) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token whose subject is the username.
func (s *TokenService) Issue(username string) (Token, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, core.Internal("error signing token", err)
	}

	return Token{Value: value, ExpiresAt: expiresAt}, nil
}

// Validate checks the signature and validity window of a token and returns
// its subject.
func (s *TokenService) Validate(value string) (string, error) {
	if value == "" {
		return "", core.Authf("missing token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(value, claims,
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", core.Authf("token has expired")
		}
		return "", core.Authf("invalid token")
	}

	if claims.Subject == "" {
		return "", core.Authf("invalid token: missing subject")
	}

	return claims.Subject, nil
}
