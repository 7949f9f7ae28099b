package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

const DefaultJWTSecret = "dev-jwt-secret-change-in-prod"

type Config struct {
	DatabaseURL           string        `env:"DATABASE_URL" envDefault:"sqlite://lilith.db"`
	JWTSecretKey          string        `env:"JWT_SECRET_KEY" envDefault:"dev-jwt-secret-change-in-prod"`
	JWTAccessTokenExpires time.Duration `env:"JWT_ACCESS_TOKEN_EXPIRES" envDefault:"24h"`
	Port                  int           `env:"PORT" envDefault:"5000"`
	CORSAllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	RequestTimeout        time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ResponderRulesFile    string        `env:"RESPONDER_RULES_FILE"`
	BcryptCost            int           `env:"BCRYPT_COST" envDefault:"10"`
}

// Load reads the configuration from the environment. Any .env file must be
// loaded into the environment before calling it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTSecretKey == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if cfg.JWTAccessTokenExpires <= 0 {
		return Config{}, fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRES must be positive, got %v", cfg.JWTAccessTokenExpires)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}

	return cfg, nil
}

func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecretKey == DefaultJWTSecret
}
