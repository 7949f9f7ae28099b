package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"lilith-backend/cmd"
	"lilith-backend/internal/api"
	"lilith-backend/internal/auth"
	"lilith-backend/internal/chat"
	"lilith-backend/internal/config"
	"lilith-backend/internal/database"
	"lilith-backend/internal/users"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func loadResponder(path string) *chat.Responder {
	if path == "" {
		return chat.NewDefaultResponder()
	}

	responder, err := chat.LoadResponderRules(path)
	if err != nil {
		log.Fatalf("Failed to load responder rules: %v", err)
	}
	slog.Info("loaded responder rules", "path", path)
	return responder
}

func main() {
	log.Println("Starting Lilith API Server...")

	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if cfg.UsesDefaultSecret() {
		slog.Warn("JWT_SECRET_KEY is not set, using the development secret; set it in production")
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecretKey, cfg.JWTAccessTokenExpires)
	if err != nil {
		log.Fatalf("Failed to create token service: %v", err)
	}

	userStore := users.NewStore(db, users.NewBcryptHasher(cfg.BcryptCost))
	manager := chat.NewSessionManager(db, loadResponder(cfg.ResponderRulesFile))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300, // preflight cache, seconds
	}))
	r.Use(api.PreflightOK)

	api.NewAuthService(userStore, tokens).AddRoutes(r)
	api.NewChatService(userStore, tokens, manager).AddRoutes(r)

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %d", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %d: %v\n", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
